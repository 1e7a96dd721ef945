package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/identity"
)

func TestLoginHandle(t *testing.T) {
	r := identity.NewResolver("")

	tests := []struct {
		principal string
		want      string
	}{
		{"Bob.Smith@corp.example", "bobsmith"},
		{"jane@corp.example", "jane"},
		{"a.b.c@x@y", "abc"},
		{"NoDomain", "nodomain"},
		{"", ""},
		{"  Padded.Name@x ", "paddedname"},
		{"Ödön.Tóth@corp.example", "ödöntóth"},
	}
	for _, tt := range tests {
		t.Run(tt.principal, func(t *testing.T) {
			assert.Equal(t, tt.want, r.LoginHandle(tt.principal))
		})
	}
}

func TestResolve(t *testing.T) {
	r := identity.NewResolver("extensionAttribute1")
	assert.Equal(t, "extensionAttribute1", r.Attribute())

	t.Run("top-level attribute", func(t *testing.T) {
		got, err := r.Resolve(identity.Record{
			"id":                  "u1",
			"displayName":         "Bob Smith",
			"userPrincipalName":   "Bob.Smith@corp.example",
			"extensionAttribute1": " bobgh ",
		})
		require.NoError(t, err)
		assert.Equal(t, identity.Resolved{
			DirectoryID:    "u1",
			DisplayName:    "Bob Smith",
			PrincipalName:  "Bob.Smith@corp.example",
			LoginHandle:    "bobsmith",
			ExternalHandle: "bobgh",
		}, got)
	})

	t.Run("on-premises fallback", func(t *testing.T) {
		got, err := r.Resolve(identity.Record{
			"userPrincipalName": "carol@corp.example",
			"onPremisesExtensionAttributes": map[string]any{
				"extensionAttribute1": "carolgh",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "carolgh", got.ExternalHandle)
	})

	t.Run("empty top-level falls through", func(t *testing.T) {
		got, err := r.Resolve(identity.Record{
			"userPrincipalName":   "dan@corp.example",
			"extensionAttribute1": "",
			"onPremisesExtensionAttributes": map[string]any{
				"extensionAttribute1": "dangh",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "dangh", got.ExternalHandle)
	})

	t.Run("ldap single value list", func(t *testing.T) {
		got, err := r.Resolve(identity.Record{
			"userPrincipalName":   "erin@corp.example",
			"extensionAttribute1": []string{"eringh"},
		})
		require.NoError(t, err)
		assert.Equal(t, "eringh", got.ExternalHandle)
	})

	t.Run("missing handle", func(t *testing.T) {
		_, err := r.Resolve(identity.Record{
			"id":                            "u9",
			"displayName":                   "No Handle",
			"userPrincipalName":             "nohandle@corp.example",
			"onPremisesExtensionAttributes": map[string]any{"extensionAttribute1": nil},
		})
		require.Error(t, err)
		assert.True(t, errors.IsMissingExternalHandle(err))

		var missing *errors.MissingExternalHandleError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "u9", missing.DirectoryID)
		assert.Equal(t, "extensionAttribute1", missing.Attribute)
	})
}

func TestResolveAll(t *testing.T) {
	r := identity.NewResolver("githubHandle")

	resolved, skipped := r.ResolveAll([]identity.Record{
		{"id": "1", "userPrincipalName": "a@x", "githubHandle": "agh"},
		{"id": "2", "userPrincipalName": "b@x"},
		{"id": "3", "userPrincipalName": "c@x", "githubHandle": "cgh"},
	})

	require.Len(t, resolved, 2)
	assert.Equal(t, "a", resolved[0].LoginHandle)
	assert.Equal(t, "c", resolved[1].LoginHandle)

	require.Len(t, skipped, 1)
	assert.Equal(t, "2", skipped[0].DirectoryID)
	assert.Contains(t, skipped[0].Reason, "githubHandle")
}

func TestRecordAccessors(t *testing.T) {
	rec := identity.Record{"id": "x", "count": float64(3), "flag": true}

	assert.Equal(t, "x", rec.ID())
	assert.Equal(t, "3", rec.String("count"))
	assert.Equal(t, "true", rec.String("flag"))
	assert.Empty(t, rec.DisplayName())

	_, ok := rec.OnPremisesAttribute("extensionAttribute1")
	assert.False(t, ok)

	clone := rec.Clone()
	clone.Merge(identity.Record{"id": "y"})
	assert.Equal(t, "x", rec.ID())
	assert.Equal(t, "y", clone.ID())

	var empty identity.Record
	assert.Empty(t, empty.PrincipalName())
}

func TestResolveNonHandleValues(t *testing.T) {
	r := identity.NewResolver("extensionAttribute1")

	tests := []struct {
		name  string
		value any
	}{
		{"false", false},
		{"true", true},
		{"nil", nil},
		{"zero", 0},
		{"zero float", float64(0)},
		{"zero unsigned", uint64(0)},
		{"blank", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(identity.Record{
				"userPrincipalName":   "bob@corp.example",
				"extensionAttribute1": tt.value,
			})
			require.Error(t, err)
			assert.True(t, errors.IsMissingExternalHandle(err))
		})
	}

	got, err := r.Resolve(identity.Record{
		"userPrincipalName":   "bob@corp.example",
		"extensionAttribute1": uint64(4242),
	})
	require.NoError(t, err)
	assert.Equal(t, "4242", got.ExternalHandle)
}
