package ldap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/accesssync/pkg/errors"
)

type fakeConn struct {
	bindErr  error
	groups   []*goldap.Entry
	members  []*goldap.Entry
	filters  []string
	pageSize uint32
	closed   bool
}

func (f *fakeConn) Bind(username, password string) error { return f.bindErr }

func (f *fakeConn) Search(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
	f.filters = append(f.filters, req.Filter)
	return &goldap.SearchResult{Entries: f.groups}, nil
}

func (f *fakeConn) SearchWithPaging(req *goldap.SearchRequest, pagingSize uint32) (*goldap.SearchResult, error) {
	f.filters = append(f.filters, req.Filter)
	f.pageSize = pagingSize
	return &goldap.SearchResult{Entries: f.members}, nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func newTestClient(t *testing.T, conn *fakeConn, nested bool) *Client {
	t.Helper()
	c, err := New(Config{
		URL:          "ldaps://dc.corp.example",
		BindDN:       "CN=svc-sync,DC=corp,DC=example",
		BindPassword: "pw",
		BaseDN:       "DC=corp,DC=example",
		Attributes:   []string{"extensionAttribute1"},
		Nested:       nested,
		Dial: func(string, time.Duration) (Conn, error) {
			return conn, nil
		},
	})
	require.NoError(t, err)
	return c
}

// adGUID is the on-wire form of 6f9619ff-8b86-d011-b42d-00c04fc964ff.
var adGUID = string([]byte{
	0xff, 0x19, 0x96, 0x6f, 0x86, 0x8b, 0x11, 0xd0,
	0xb4, 0x2d, 0x00, 0xc0, 0x4f, 0xc9, 0x64, 0xff,
})

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{BindDN: "cn=x"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConfigError(err))
	assert.Contains(t, err.Error(), "ldap_url")
	assert.Contains(t, err.Error(), "ldap_base_dn")
	assert.Contains(t, err.Error(), "ldap_bind_password")
}

func TestAuthenticate(t *testing.T) {
	t.Run("bind rejected", func(t *testing.T) {
		conn := &fakeConn{bindErr: errors.New("LDAP Result Code 49")}
		err := newTestClient(t, conn, false).Authenticate(context.Background())
		require.Error(t, err)
		assert.True(t, pkgerrors.IsAuthentication(err))
		assert.True(t, conn.closed)
	})

	t.Run("dial failure", func(t *testing.T) {
		c, err := New(Config{
			URL:    "ldap://nowhere",
			BaseDN: "DC=x",
			Dial: func(string, time.Duration) (Conn, error) {
				return nil, errors.New("connection refused")
			},
		})
		require.NoError(t, err)
		assert.True(t, pkgerrors.IsAuthentication(c.Authenticate(context.Background())))
	})
}

func TestGroupMembers(t *testing.T) {
	conn := &fakeConn{
		groups: []*goldap.Entry{
			goldap.NewEntry("CN=IT-Team,OU=Groups,DC=corp,DC=example", nil),
		},
		members: []*goldap.Entry{
			goldap.NewEntry("CN=Bob Smith,OU=Users,DC=corp,DC=example", map[string][]string{
				"objectGUID":          {adGUID},
				"displayName":         {"Bob Smith"},
				"userPrincipalName":   {"bob.smith@corp.example"},
				"sn":                  {"Smith"},
				"extensionAttribute1": {"bobgh"},
			}),
			goldap.NewEntry("CN=No Guid,OU=Users,DC=corp,DC=example", map[string][]string{
				"userPrincipalName":   {"noguid@corp.example"},
				"extensionAttribute1": {"a", "b"},
			}),
		},
	}
	c := newTestClient(t, conn, true)
	require.NoError(t, c.Authenticate(context.Background()))

	records, err := c.GroupMembers(context.Background(), "IT-Team")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", records[0].ID())
	assert.Equal(t, "Bob Smith", records[0].DisplayName())
	assert.Equal(t, "bob.smith@corp.example", records[0].PrincipalName())
	assert.Equal(t, "Smith", records[0].String("surname"))
	assert.Equal(t, "bobgh", records[0].String("extensionAttribute1"))

	assert.Equal(t, "CN=No Guid,OU=Users,DC=corp,DC=example", records[1].ID())
	assert.Equal(t, []string{"a", "b"}, records[1]["extensionAttribute1"])

	require.Len(t, conn.filters, 2)
	assert.Equal(t, "(&(objectClass=group)(cn=IT-Team))", conn.filters[0])
	assert.True(t, strings.HasPrefix(conn.filters[1], "(&(objectCategory=person)(objectClass=user)(memberOf:1.2.840.113556.1.4.1941:=CN=IT-Team"))
	assert.Equal(t, uint32(500), conn.pageSize)

	require.NoError(t, c.Close())
	assert.True(t, conn.closed)
}

func TestGroupNotFound(t *testing.T) {
	conn := &fakeConn{}
	c := newTestClient(t, conn, false)
	require.NoError(t, c.Authenticate(context.Background()))

	_, err := c.GroupMembers(context.Background(), "admins*")
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrGroupNotFound)
	assert.Equal(t, `(&(objectClass=group)(cn=admins\2a))`, conn.filters[0])
}

func TestGroupMembersRequiresBind(t *testing.T) {
	c := newTestClient(t, &fakeConn{}, false)
	_, err := c.GroupMembers(context.Background(), "IT-Team")
	assert.True(t, pkgerrors.IsLookup(err))
}

func TestObjectGUID(t *testing.T) {
	_, err := objectGUID([]byte{1, 2, 3})
	assert.Error(t, err)
}
