package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/accesssync/pkg/identity"
	"github.com/agentstation/accesssync/pkg/reconcile"
	"github.com/agentstation/accesssync/pkg/store"
)

// Result represents the complete result of a sync run.
type Result struct {
	// Run metadata
	RunID        string    `json:"run_id" yaml:"run_id"`
	RunAt        time.Time `json:"run_at" yaml:"run_at"`
	Directory    string    `json:"directory" yaml:"directory"`
	Group        string    `json:"group" yaml:"group"`
	DocumentPath string    `json:"document_path" yaml:"document_path"`
	DryRun       bool      `json:"dry_run" yaml:"dry_run"`

	// Roster statistics
	Members  int                `json:"members" yaml:"members"`   // Records returned by the directory
	Resolved int                `json:"resolved" yaml:"resolved"` // Records with an external handle
	Skipped  []identity.Skipped `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// LookupError is set when the group lookup failed and the run
	// continued with zero members.
	LookupError string `json:"lookup_error,omitempty" yaml:"lookup_error,omitempty"`

	Reconcile *reconcile.Result   `json:"-" yaml:"-"`
	Commit    *store.CommitResult `json:"commit,omitempty" yaml:"commit,omitempty"`
}

// Committed reports whether the document was written.
func (r *Result) Committed() bool {
	return r.Commit != nil
}

// HasChanges returns true if the synced membership changed.
func (r *Result) HasChanges() bool {
	return r.Reconcile != nil && r.Reconcile.Changed()
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	if r.Reconcile == nil {
		return "No reconciliation performed"
	}

	var parts []string
	if r.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if r.LookupError != "" {
		parts = append(parts, "(Lookup failed)")
	}
	if len(r.Skipped) > 0 {
		parts = append(parts, fmt.Sprintf("(%d skipped)", len(r.Skipped)))
	}

	summary := fmt.Sprintf("%s: %s", r.Group, r.Reconcile)
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}
	return summary
}
