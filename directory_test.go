package accesssync_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/accesssync"
	"github.com/agentstation/accesssync/pkg/directory"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/sync"
)

func TestNewDirectory(t *testing.T) {
	tests := []struct {
		name    string
		cfg     accesssync.DirectoryConfig
		want    string
		wantErr bool
	}{
		{
			name: "graph by default",
			cfg:  accesssync.DirectoryConfig{TenantID: "t", ClientID: "c", ClientSecret: "s"},
			want: "graph",
		},
		{
			name:    "graph missing credentials",
			cfg:     accesssync.DirectoryConfig{Kind: directory.KindGraph, TenantID: "t"},
			wantErr: true,
		},
		{
			name: "ldap",
			cfg: accesssync.DirectoryConfig{
				Kind:       "LDAP",
				LDAPURL:    "ldaps://dc.corp.example",
				LDAPBaseDN: "dc=corp,dc=example",
			},
			want: "ldap",
		},
		{
			name:    "file without roster",
			cfg:     accesssync.DirectoryConfig{Kind: directory.KindFile},
			wantErr: true,
		},
		{
			name:    "unsupported",
			cfg:     accesssync.DirectoryConfig{Kind: "okta"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := accesssync.NewDirectory(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsConfigError(err))
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.Name())
		})
	}
}

func TestSyncFromRosterFile(t *testing.T) {
	dir := t.TempDir()
	roster := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(roster, []byte(`groups:
  - name: it-team
    members:
      - id: u1
        displayName: Dana Ops
        userPrincipalName: dana.ops@corp.example
        extensionAttribute1: danagh
`), 0o644))

	client, err := accesssync.NewDirectory(accesssync.DirectoryConfig{Kind: directory.KindFile, RosterFile: roster})
	require.NoError(t, err)

	s, err := accesssync.New(accesssync.WithDirectory(client))
	require.NoError(t, err)

	path := filepath.Join(dir, "user-mapping.json")
	result, err := s.Sync(context.Background(), sync.WithDocumentPath(path))
	require.NoError(t, err)
	assert.Equal(t, "file", result.Directory)

	doc := loadDocument(t, path)
	entry, ok := doc.Lookup("danaops")
	require.True(t, ok)
	assert.Equal(t, "danagh", entry.ExternalHandle)
}
