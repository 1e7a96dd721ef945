package reconcile

import (
	"fmt"

	"github.com/agentstation/accesssync/pkg/access"
)

// IssueKind classifies a fresh entry the engine did not emit as given.
type IssueKind string

// Issue kinds.
const (
	// IssueEmptyLoginHandle marks an entry whose login handle derived empty.
	IssueEmptyLoginHandle IssueKind = "empty_login_handle"
	// IssueManualConflict marks an entry whose login handle a manual entry owns.
	IssueManualConflict IssueKind = "manual_conflict"
	// IssueDuplicate marks an entry superseded by a later one with the same
	// login handle.
	IssueDuplicate IssueKind = "duplicate_login_handle"
)

// Issue is a data-quality finding about one fresh entry.
type Issue struct {
	Kind            IssueKind `json:"kind"`
	LoginHandle     string    `json:"login_handle"`
	SourcePrincipal string    `json:"source_principal,omitempty"`
	ExternalHandle  string    `json:"external_handle,omitempty"`
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueEmptyLoginHandle:
		return fmt.Sprintf("%s has an empty login handle", i.SourcePrincipal)
	case IssueManualConflict:
		return fmt.Sprintf("login %q belongs to a manual entry; %s not synced", i.LoginHandle, i.SourcePrincipal)
	case IssueDuplicate:
		return fmt.Sprintf("login %q appears more than once; %s superseded", i.LoginHandle, i.SourcePrincipal)
	}
	return string(i.Kind)
}

// Result is the outcome of one reconciliation.
type Result struct {
	// Document is the reconciled document. It never aliases the input.
	Document *access.Document

	// Summary is also stored on Document.
	Summary access.SyncSummary

	Manual []access.Entry
	Synced []access.Entry

	// Removed lists the login handles of prior synced entries absent from
	// the fresh roster.
	Removed []string
	// Added lists the login handles of fresh entries with no prior synced
	// counterpart.
	Added []string
	// Updated lists the login handles of synced entries whose grant changed,
	// such as a remapped GitHub handle. The sync timestamp is not compared.
	Updated []string

	Issues []Issue
}

// HasIssues reports whether any fresh entry was dropped.
func (r *Result) HasIssues() bool {
	return len(r.Issues) > 0
}

// Changed reports whether the synced set changed.
func (r *Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Updated) > 0
}

// String returns a one-line summary.
func (r *Result) String() string {
	return fmt.Sprintf("%d synced, %d manual (+%d -%d ~%d), %d issues",
		r.Summary.SyncedCount, r.Summary.ManualCount, len(r.Added), len(r.Removed), len(r.Updated), len(r.Issues))
}
