// Package sync provides options and results for one access document sync run.
package sync

import (
	"strings"
	"time"

	"github.com/agentstation/accesssync/pkg/constants"
	"github.com/agentstation/accesssync/pkg/errors"
)

// Options controls a single run of Syncer.Sync().
type Options struct {
	// Orchestration control
	DryRun       bool          // Reconcile and report without committing
	Timeout      time.Duration // Timeout for the entire run, zero means none
	StrictLookup bool          // Fail the run after completion when the group lookup failed

	// Targets
	DocumentPath string // Access document to reconcile
	Group        string // Directory group holding the roster
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		DryRun:       false,
		Timeout:      constants.SyncTimeout,
		StrictLookup: true,
		DocumentPath: constants.DefaultDocumentPath,
		Group:        constants.DefaultGroupName,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}

	if strings.TrimSpace(s.DocumentPath) == "" {
		return &errors.ValidationError{
			Field:   "DocumentPath",
			Message: "document path is required",
		}
	}

	if strings.TrimSpace(s.Group) == "" {
		return &errors.ValidationError{
			Field:   "Group",
			Message: "group name is required",
		}
	}

	return nil
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithTimeout configures the run timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithStrictLookup configures whether a failed group lookup fails the run.
// The document is reconciled and committed either way.
func WithStrictLookup(strict bool) Option {
	return func(opts *Options) {
		opts.StrictLookup = strict
	}
}

// WithDocumentPath configures the access document path. Empty paths are ignored.
func WithDocumentPath(path string) Option {
	return func(opts *Options) {
		if path != "" {
			opts.DocumentPath = path
		}
	}
}

// WithGroup configures the directory group. Empty names are ignored.
func WithGroup(group string) Option {
	return func(opts *Options) {
		if group != "" {
			opts.Group = group
		}
	}
}
