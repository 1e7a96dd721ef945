// Package reconcile merges a freshly built set of synced access entries into
// an existing access document. Manual entries are carried over untouched and
// the previous synced set is replaced wholesale.
package reconcile

import (
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync/pkg/access"
	"github.com/agentstation/accesssync/pkg/errors"
)

// Request is the input to a reconciliation.
type Request struct {
	// Current is the persisted document. It is not modified.
	Current *access.Document
	// Fresh are the entries built from the current roster snapshot.
	Fresh []access.Entry
	// Group is the directory group the roster came from.
	Group string
	// RunAt stamps the summary.
	RunAt time.Time
}

// Engine reconciles access documents.
type Engine struct {
	logger *zerolog.Logger
}

// New creates an Engine with options.
func New(opts ...Option) (*Engine, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{logger: options.logger}, nil
}

// Reconcile returns the document holding every manual entry of req.Current
// followed by the admissible fresh entries.
func (e *Engine) Reconcile(req Request) (*Result, error) {
	if req.RunAt.IsZero() {
		return nil, &errors.ValidationError{Field: "run_at", Message: "is required"}
	}

	current := req.Current
	if current == nil {
		current = access.NewDocument()
	}
	doc := current.Clone()

	manual, prior := partition(doc.Entries)
	owned := make(map[string]struct{}, len(manual))
	for _, m := range manual {
		owned[m.LoginHandle] = struct{}{}
	}

	result := &Result{Manual: manual}
	fresh := e.filter(req.Fresh, owned, result)

	entries := make([]access.Entry, 0, len(manual)+len(fresh))
	entries = append(entries, manual...)
	entries = append(entries, fresh...)
	doc.Entries = entries

	summary := access.SyncSummary{
		LastSync:    access.NewTimestamp(req.RunAt),
		SyncedCount: len(fresh),
		ManualCount: len(manual),
		Group:       req.Group,
	}
	doc.Summary = &summary

	result.Document = doc
	result.Summary = summary
	result.Synced = fresh
	result.Added, result.Removed, result.Updated = membershipDiff(prior, fresh)

	e.logger.Debug().
		Int("manual", len(manual)).
		Int("prior_synced", len(prior)).
		Int("synced", len(fresh)).
		Int("added", len(result.Added)).
		Int("removed", len(result.Removed)).
		Int("updated", len(result.Updated)).
		Str("group", req.Group).
		Msg("reconciled access document")

	return result, nil
}

func partition(entries []access.Entry) (manual, synced []access.Entry) {
	manual = []access.Entry{}
	for _, entry := range entries {
		if entry.IsManual() {
			manual = append(manual, entry)
		} else {
			synced = append(synced, entry)
		}
	}
	return manual, synced
}

// filter drops fresh entries that cannot be emitted. Among duplicates the
// last wins and takes the position of its last occurrence.
func (e *Engine) filter(fresh []access.Entry, owned map[string]struct{}, result *Result) []access.Entry {
	last := make(map[string]int, len(fresh))
	for i, entry := range fresh {
		last[entry.LoginHandle] = i
	}

	out := make([]access.Entry, 0, len(fresh))
	for i, entry := range fresh {
		issue := Issue{
			LoginHandle:     entry.LoginHandle,
			SourcePrincipal: entry.SourcePrincipal,
			ExternalHandle:  entry.ExternalHandle,
		}
		switch {
		case entry.LoginHandle == "":
			issue.Kind = IssueEmptyLoginHandle
		case isOwned(owned, entry.LoginHandle):
			issue.Kind = IssueManualConflict
		case last[entry.LoginHandle] != i:
			issue.Kind = IssueDuplicate
		default:
			out = append(out, entry.Clone())
			continue
		}
		result.Issues = append(result.Issues, issue)
		e.logger.Warn().
			Str("kind", string(issue.Kind)).
			Str("login", issue.LoginHandle).
			Str("principal", issue.SourcePrincipal).
			Msg(issue.String())
	}
	return out
}

func isOwned(owned map[string]struct{}, login string) bool {
	_, ok := owned[login]
	return ok
}

func membershipDiff(prior, fresh []access.Entry) (added, removed, updated []string) {
	before := make(map[string]access.Entry, len(prior))
	for _, p := range prior {
		before[p.LoginHandle] = p
	}
	after := make(map[string]struct{}, len(fresh))
	for _, f := range fresh {
		after[f.LoginHandle] = struct{}{}
		p, ok := before[f.LoginHandle]
		switch {
		case !ok:
			added = append(added, f.LoginHandle)
		case !sameGrant(p, f):
			updated = append(updated, f.LoginHandle)
		}
	}
	for _, p := range prior {
		if _, ok := after[p.LoginHandle]; !ok {
			removed = append(removed, p.LoginHandle)
		}
	}
	return added, removed, updated
}

// sameGrant compares every emitted field except the sync timestamp.
func sameGrant(a, b access.Entry) bool {
	return a.ExternalHandle == b.ExternalHandle &&
		a.FullName == b.FullName &&
		a.Tier == b.Tier &&
		a.SourcePrincipal == b.SourcePrincipal &&
		slices.Equal(a.Groups, b.Groups) &&
		slices.Equal(a.Commands, b.Commands)
}
