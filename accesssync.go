// Package accesssync keeps the synced entries of a local access document in
// step with the members of a directory group.
//
// A run locks the document, loads it, fetches the group roster, resolves and
// builds the fresh entries, reconciles them against the manual entries and
// commits the result with a backup of the previous document.
package accesssync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync/pkg/access"
	"github.com/agentstation/accesssync/pkg/directory"
	"github.com/agentstation/accesssync/pkg/identity"
	"github.com/agentstation/accesssync/pkg/reconcile"
	"github.com/agentstation/accesssync/pkg/store"
	"github.com/agentstation/accesssync/pkg/sync"
)

// Syncer runs access document syncs against one directory.
type Syncer interface {
	// Sync performs one full run and returns its result. The result is
	// returned alongside a strict lookup failure so callers can still
	// report what was committed.
	Sync(ctx context.Context, opts ...sync.Option) (*sync.Result, error)

	// OnEntryAdded registers a callback for entries that joined the synced set
	OnEntryAdded(EntryAddedHook)

	// OnEntryRemoved registers a callback for entries that left the synced set
	OnEntryRemoved(EntryRemovedHook)

	// OnEntryUpdated registers a callback for synced entries whose grant changed
	OnEntryUpdated(EntryUpdatedHook)
}

// syncer is the internal implementation of the Syncer interface
type syncer struct {
	config *config

	directory directory.Client
	resolver  *identity.Resolver
	builder   *access.Builder
	engine    *reconcile.Engine
	store     *store.Store
	logger    *zerolog.Logger

	hooks *hooks
}

var _ Syncer = (*syncer)(nil)

// New creates a Syncer. A directory client is required.
func New(opts ...Option) (Syncer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	builder, err := access.NewBuilder(cfg.builder)
	if err != nil {
		return nil, err
	}
	engine, err := reconcile.New(reconcile.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}

	st := cfg.store
	if st == nil {
		st = store.New(store.WithLogger(cfg.logger))
	}

	return &syncer{
		config:    cfg,
		directory: cfg.directory,
		resolver:  identity.NewResolver(cfg.attribute),
		builder:   builder,
		engine:    engine,
		store:     st,
		logger:    cfg.logger,
		hooks:     newHooks(),
	}, nil
}

// OnEntryAdded registers a callback for entries that joined the synced set
func (s *syncer) OnEntryAdded(fn EntryAddedHook) {
	s.hooks.OnEntryAdded(fn)
}

// OnEntryRemoved registers a callback for entries that left the synced set
func (s *syncer) OnEntryRemoved(fn EntryRemovedHook) {
	s.hooks.OnEntryRemoved(fn)
}

// OnEntryUpdated registers a callback for synced entries whose grant changed
func (s *syncer) OnEntryUpdated(fn EntryUpdatedHook) {
	s.hooks.OnEntryUpdated(fn)
}
