// Package application provides the application interface for accesssync commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            syncer, err := app.Syncer()
//	            if err != nil {
//	                return err
//	            }
//	            result, err := syncer.Sync(cmd.Context())
//	            // ... print result
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    SyncerFunc: func() (accesssync.Syncer, error) {
//	        return testSyncer, nil
//	    },
//	}
//	cmd := NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync"
	"github.com/agentstation/accesssync/pkg/store"
	"github.com/agentstation/accesssync/pkg/sync"
)

// Application provides the application interface that commands need.
// The App struct from cmd/accesssync/app implements this interface.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Syncer returns the syncer built from the configuration. It is created
	// on first use and cached.
	Syncer() (accesssync.Syncer, error)

	// Store returns the document store.
	Store() *store.Store

	// SyncOptions returns the configured defaults for a sync run, such as
	// the document path and group. Commands may modify the returned copy.
	SyncOptions() *sync.Options

	// ValidateConfig checks the configuration without contacting the
	// directory.
	ValidateConfig() error

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, markdown).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
