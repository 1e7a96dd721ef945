package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync"
	"github.com/agentstation/accesssync/pkg/store"
	"github.com/agentstation/accesssync/pkg/sync"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	SyncerFunc         func() (accesssync.Syncer, error)
	StoreFunc          func() *store.Store
	SyncOptionsFunc    func() *sync.Options
	ValidateConfigFunc func() error
	LoggerFunc         func() *zerolog.Logger
	OutputFormatFunc   func() string
	VersionFunc        func() string
	CommitFunc         func() string
	DateFunc           func() string
	BuiltByFunc        func() string
}

// Syncer returns a syncer using the mock function or nil.
func (m *Mock) Syncer() (accesssync.Syncer, error) {
	if m.SyncerFunc != nil {
		return m.SyncerFunc()
	}
	return nil, nil
}

// Store returns a store using the mock function or a default store.
func (m *Mock) Store() *store.Store {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	return store.New()
}

// SyncOptions returns options using the mock function or the defaults.
func (m *Mock) SyncOptions() *sync.Options {
	if m.SyncOptionsFunc != nil {
		return m.SyncOptionsFunc()
	}
	return sync.Defaults()
}

// ValidateConfig returns the mock function result or nil.
func (m *Mock) ValidateConfig() error {
	if m.ValidateConfigFunc != nil {
		return m.ValidateConfigFunc()
	}
	return nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
