package accesssync

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync/pkg/access"
	"github.com/agentstation/accesssync/pkg/constants"
	"github.com/agentstation/accesssync/pkg/directory"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/logging"
	"github.com/agentstation/accesssync/pkg/store"
	"github.com/agentstation/accesssync/pkg/sync"
)

// Option is a function that configures a Syncer instance
type Option func(*config) error

// config holds the configuration for a Syncer instance
type config struct {
	directory directory.Client
	store     *store.Store
	logger    *zerolog.Logger

	// attribute carries the external handle on directory records
	attribute string
	builder   access.BuilderConfig

	// defaults applied to every run before per-run options
	defaults []sync.Option

	clock func() time.Time
}

func defaultConfig() *config {
	return &config{
		logger:    logging.Default(),
		attribute: constants.DefaultExternalHandleAttribute,
		builder:   access.DefaultBuilderConfig(),
		clock:     time.Now,
	}
}

func (c *config) validate() error {
	if c.directory == nil {
		return errors.NewConfigError("accesssync", "a directory client is required", nil)
	}
	return nil
}

// WithDirectory configures the directory holding the group roster
func WithDirectory(client directory.Client) Option {
	return func(c *config) error {
		if client == nil {
			return &errors.ValidationError{Field: "directory", Message: "client cannot be nil"}
		}
		c.directory = client
		return nil
	}
}

// WithStore configures the document store. By default a store using the
// Syncer logger is created.
func WithStore(s *store.Store) Option {
	return func(c *config) error {
		if s == nil {
			return &errors.ValidationError{Field: "store", Message: "store cannot be nil"}
		}
		c.store = s
		return nil
	}
}

// WithLogger configures the logger used by the run and its components
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "logger cannot be nil"}
		}
		c.logger = logger
		return nil
	}
}

// WithExternalHandleAttribute configures the record attribute holding the
// external handle. Empty means the default attribute.
func WithExternalHandleAttribute(attribute string) Option {
	return func(c *config) error {
		if attribute != "" {
			c.attribute = attribute
		}
		return nil
	}
}

// WithBuilderConfig configures how synced entries are built
func WithBuilderConfig(cfg access.BuilderConfig) Option {
	return func(c *config) error {
		c.builder = cfg
		return nil
	}
}

// WithSyncDefaults configures options applied to every run before the
// options passed to Sync
func WithSyncDefaults(opts ...sync.Option) Option {
	return func(c *config) error {
		c.defaults = append(c.defaults, opts...)
		return nil
	}
}

// WithClock configures the source of run timestamps
func WithClock(clock func() time.Time) Option {
	return func(c *config) error {
		if clock == nil {
			return &errors.ValidationError{Field: "clock", Message: "clock cannot be nil"}
		}
		c.clock = clock
		return nil
	}
}
