package accesssync

import (
	"sync"

	"github.com/agentstation/accesssync/pkg/access"
	"github.com/agentstation/accesssync/pkg/reconcile"
)

// Hook function types for membership events
type (
	// EntryAddedHook is called when an entry joins the synced set
	EntryAddedHook func(entry access.Entry)

	// EntryRemovedHook is called when an entry leaves the synced set
	EntryRemovedHook func(entry access.Entry)

	// EntryUpdatedHook is called when a synced entry's grant changes, for
	// example a remapped GitHub handle
	EntryUpdatedHook func(before, after access.Entry)
)

// hooks manages event callbacks for membership changes
type hooks struct {
	mu             sync.RWMutex
	onEntryAdded   []EntryAddedHook
	onEntryRemoved []EntryRemovedHook
	onEntryUpdated []EntryUpdatedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnEntryAdded registers a callback for when entries are added
func (h *hooks) OnEntryAdded(fn EntryAddedHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntryAdded = append(h.onEntryAdded, fn)
}

// OnEntryRemoved registers a callback for when entries are removed
func (h *hooks) OnEntryRemoved(fn EntryRemovedHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntryRemoved = append(h.onEntryRemoved, fn)
}

// OnEntryUpdated registers a callback for when entries change in place
func (h *hooks) OnEntryUpdated(fn EntryUpdatedHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntryUpdated = append(h.onEntryUpdated, fn)
}

// triggerMembershipChange fires hooks for the login handles the result
// names, looking entries up in the prior and committed documents.
func (h *hooks) triggerMembershipChange(prior *access.Document, result *reconcile.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	next := result.Document
	for _, login := range result.Added {
		entry, ok := next.Lookup(login)
		if !ok {
			continue
		}
		for _, hook := range h.onEntryAdded {
			hook(entry.Clone())
		}
	}

	for _, login := range result.Removed {
		entry, ok := prior.Lookup(login)
		if !ok {
			continue
		}
		for _, hook := range h.onEntryRemoved {
			hook(entry.Clone())
		}
	}

	for _, login := range result.Updated {
		before, ok := prior.Lookup(login)
		if !ok {
			continue
		}
		after, ok := next.Lookup(login)
		if !ok {
			continue
		}
		for _, hook := range h.onEntryUpdated {
			hook(before.Clone(), after.Clone())
		}
	}
}
