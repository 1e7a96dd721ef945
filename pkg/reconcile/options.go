package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/logging"
)

// options configures an Engine.
type options struct {
	logger *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		logger: logging.NewNopLogger(),
	}
}

// Option is a function that configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns engine options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithLogger sets the logger that receives reconciliation events.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		o.logger = logger
		return nil
	}
}
