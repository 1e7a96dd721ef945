// Package app provides the application context and dependency management
// for the accesssync CLI. It centralizes configuration, logging and the
// lazily built syncer shared by the commands.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync"
	"github.com/agentstation/accesssync/internal/cmd/application"
	"github.com/agentstation/accesssync/pkg/store"
	syncopts "github.com/agentstation/accesssync/pkg/sync"
)

// App represents the accesssync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config    *Config
	configErr error

	// Logger
	logger *zerolog.Logger

	// Syncer instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	syncer accesssync.Syncer
	store  *store.Store
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
// Configuration is read from the default locations; the --config flag
// reloads it before a command runs.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		// Commands report the error after flags are parsed, a --config
		// flag may point somewhere valid.
		config = &Config{LogFormat: "auto", LogOutput: "stderr"}
		app.configErr = err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Store returns the document store.
func (a *App) Store() *store.Store {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		a.store = store.New(store.WithLogger(a.logger))
	}
	return a.store
}

// SyncOptions returns a copy of the configured sync run defaults.
func (a *App) SyncOptions() *syncopts.Options {
	return syncopts.Defaults().Apply(a.config.SyncOptions()...)
}

// ValidateConfig checks the configuration without contacting the directory.
func (a *App) ValidateConfig() error {
	if a.configErr != nil {
		return a.configErr
	}
	return a.config.Validate()
}

// Syncer returns the syncer, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Syncer() (accesssync.Syncer, error) {
	a.mu.RLock()
	if a.syncer != nil {
		s := a.syncer
		a.mu.RUnlock()
		return s, nil
	}
	a.mu.RUnlock()

	if err := a.ValidateConfig(); err != nil {
		return nil, err
	}

	opts, err := a.buildSyncerOptions()
	if err != nil {
		return nil, err
	}

	st := a.Store()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.syncer != nil {
		return a.syncer, nil
	}

	s, err := accesssync.New(append(opts, accesssync.WithStore(st))...)
	if err != nil {
		return nil, err
	}
	a.syncer = s
	return s, nil
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	return nil
}

// buildSyncerOptions constructs syncer options from the app configuration.
func (a *App) buildSyncerOptions() ([]accesssync.Option, error) {
	client, err := accesssync.NewDirectory(a.config.DirectoryConfig())
	if err != nil {
		return nil, err
	}
	builder, err := a.config.BuilderConfig()
	if err != nil {
		return nil, err
	}

	return []accesssync.Option{
		accesssync.WithDirectory(client),
		accesssync.WithLogger(a.logger),
		accesssync.WithExternalHandleAttribute(a.config.HandleAttribute),
		accesssync.WithBuilderConfig(builder),
		accesssync.WithSyncDefaults(a.config.SyncOptions()...),
	}, nil
}

// reload rereads the configuration from path.
func (a *App) reload(path string) error {
	config, err := LoadConfig(path)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = config
	a.configErr = nil
	a.syncer = nil
	a.store = nil
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		a.configErr = nil
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithSyncer sets a custom syncer instance (useful for testing).
func WithSyncer(s accesssync.Syncer) Option {
	return func(a *App) error {
		a.syncer = s
		return nil
	}
}
