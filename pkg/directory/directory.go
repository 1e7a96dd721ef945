// Package directory defines the contract between a sync run and the
// directory service holding the authoritative group roster.
package directory

import (
	"context"
	"slices"

	"github.com/agentstation/accesssync/pkg/identity"
)

// Client authenticates against a directory service and lists the members
// of a named group.
type Client interface {
	// Name identifies the directory in logs and errors.
	Name() string

	// Authenticate establishes credentials. Failures are
	// *errors.AuthenticationError.
	Authenticate(ctx context.Context) error

	// GroupMembers returns the user members of group with their attributes.
	// Failures, including a missing group, are *errors.LookupError.
	GroupMembers(ctx context.Context, group string) ([]identity.Record, error)
}

// Closer is implemented by clients holding a connection.
type Closer interface {
	Close() error
}

// Kind selects a directory implementation.
type Kind string

// Directory kinds.
const (
	KindGraph Kind = "graph"
	KindLDAP  Kind = "ldap"
	KindFile  Kind = "file"
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Kinds returns every supported kind.
func Kinds() []Kind {
	return []Kind{KindGraph, KindLDAP, KindFile}
}

// IsValid reports whether k is a supported kind.
func (k Kind) IsValid() bool {
	return slices.Contains(Kinds(), k)
}
