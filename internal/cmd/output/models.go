package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/accesssync/internal/cmd/emoji"
	"github.com/agentstation/accesssync/pkg/access"
	"github.com/agentstation/accesssync/pkg/identity"
	"github.com/agentstation/accesssync/pkg/sync"
)

// SyncReport is the printable outcome of a sync run.
type SyncReport struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	Group       string             `json:"group" yaml:"group"`
	Directory   string             `json:"directory" yaml:"directory"`
	Document    string             `json:"document" yaml:"document"`
	DryRun      bool               `json:"dry_run" yaml:"dry_run"`
	Members     int                `json:"members" yaml:"members"`
	Resolved    int                `json:"resolved" yaml:"resolved"`
	Synced      int                `json:"synced" yaml:"synced"`
	Manual      int                `json:"manual" yaml:"manual"`
	Added       []string           `json:"added" yaml:"added"`
	Removed     []string           `json:"removed" yaml:"removed"`
	Updated     []string           `json:"updated" yaml:"updated"`
	Skipped     []identity.Skipped `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Issues      []string           `json:"issues,omitempty" yaml:"issues,omitempty"`
	LookupError string             `json:"lookup_error,omitempty" yaml:"lookup_error,omitempty"`
	Backup      string             `json:"backup,omitempty" yaml:"backup,omitempty"`
	Digest      string             `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// NewSyncReport builds a report from a sync result.
func NewSyncReport(r *sync.Result) SyncReport {
	report := SyncReport{
		RunID:       r.RunID,
		Group:       r.Group,
		Directory:   r.Directory,
		Document:    r.DocumentPath,
		DryRun:      r.DryRun,
		Members:     r.Members,
		Resolved:    r.Resolved,
		Added:       []string{},
		Removed:     []string{},
		Updated:     []string{},
		Skipped:     r.Skipped,
		LookupError: r.LookupError,
	}
	if rec := r.Reconcile; rec != nil {
		report.Synced = rec.Summary.SyncedCount
		report.Manual = rec.Summary.ManualCount
		report.Added = append(report.Added, rec.Added...)
		report.Removed = append(report.Removed, rec.Removed...)
		report.Updated = append(report.Updated, rec.Updated...)
		for _, issue := range rec.Issues {
			report.Issues = append(report.Issues, issue.String())
		}
	}
	if r.Commit != nil {
		report.Backup = r.Commit.Backup
		report.Digest = r.Commit.Digest
	}
	return report
}

// Tables implements Tabular.
func (r SyncReport) Tables() []Data {
	summary := Data{
		Title:   "Sync",
		Headers: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", r.RunID},
			{"Group", r.Group},
			{"Directory", r.Directory},
			{"Document", r.Document},
			{"Dry Run", strconv.FormatBool(r.DryRun)},
			{"Members", strconv.Itoa(r.Members)},
			{"Resolved", strconv.Itoa(r.Resolved)},
			{"Synced", strconv.Itoa(r.Synced)},
			{"Manual", strconv.Itoa(r.Manual)},
			{"Added", joinOrDash(r.Added)},
			{"Removed", joinOrDash(r.Removed)},
			{"Updated", joinOrDash(r.Updated)},
		},
		ColumnAlignment: []Align{AlignLeft, AlignLeft},
	}
	summary.Rows = append(summary.Rows, []string{"Result", r.status()})
	if r.LookupError != "" {
		summary.Rows = append(summary.Rows, []string{"Lookup Error", r.LookupError})
	}
	if r.Backup != "" {
		summary.Rows = append(summary.Rows, []string{"Backup", r.Backup})
	}
	if r.Digest != "" {
		summary.Rows = append(summary.Rows, []string{"Digest", r.Digest})
	}

	tables := []Data{summary}

	if len(r.Skipped) > 0 {
		skipped := Data{
			Title:   "Skipped",
			Headers: []string{"Principal", "Display Name", "Reason"},
		}
		for _, s := range r.Skipped {
			skipped.Rows = append(skipped.Rows, []string{s.PrincipalName, s.DisplayName, s.Reason})
		}
		tables = append(tables, skipped)
	}

	if len(r.Issues) > 0 {
		issues := Data{Title: "Issues", Headers: []string{"Issue"}}
		for _, i := range r.Issues {
			issues.Rows = append(issues.Rows, []string{i})
		}
		tables = append(tables, issues)
	}

	return tables
}

func (r SyncReport) status() string {
	switch {
	case r.LookupError != "" || len(r.Skipped) > 0 || len(r.Issues) > 0:
		return emoji.Warning + " completed with warnings"
	case r.DryRun:
		return emoji.Success + " dry run"
	default:
		return emoji.Success + " committed"
	}
}

// StatusReport describes an access document on disk.
type StatusReport struct {
	Document string        `json:"document" yaml:"document"`
	Format   string        `json:"format" yaml:"format"`
	Exists   bool          `json:"exists" yaml:"exists"`
	Synced   int           `json:"synced" yaml:"synced"`
	Manual   int           `json:"manual" yaml:"manual"`
	Group    string        `json:"group,omitempty" yaml:"group,omitempty"`
	LastSync string        `json:"last_sync,omitempty" yaml:"last_sync,omitempty"`
	Digest   string        `json:"digest" yaml:"digest"`
	Backups  []string      `json:"backups" yaml:"backups"`
	Entries  []StatusEntry `json:"entries" yaml:"entries"`
}

// StatusEntry is one access entry in a status report.
type StatusEntry struct {
	LoginHandle    string `json:"local_user" yaml:"local_user"`
	ExternalHandle string `json:"github_user" yaml:"github_user"`
	FullName       string `json:"full_name" yaml:"full_name"`
	Tier           string `json:"sudo_access" yaml:"sudo_access"`
	Source         string `json:"source" yaml:"source"`
	LastSynced     string `json:"last_synced,omitempty" yaml:"last_synced,omitempty"`
}

// NewStatusReport builds a status report for doc.
func NewStatusReport(path, format string, exists bool, doc *access.Document, digest string, backups []string) StatusReport {
	report := StatusReport{
		Document: path,
		Format:   format,
		Exists:   exists,
		Digest:   digest,
		Backups:  append([]string{}, backups...),
		Entries:  []StatusEntry{},
	}
	if doc.Summary != nil {
		report.Group = doc.Summary.Group
		report.LastSync = doc.Summary.LastSync.String()
	}
	for _, e := range doc.Entries {
		entry := StatusEntry{
			LoginHandle:    e.LoginHandle,
			ExternalHandle: e.ExternalHandle,
			FullName:       e.FullName,
			Tier:           e.Tier.String(),
			Source:         "manual",
		}
		if !e.IsManual() {
			entry.Source = "synced"
			report.Synced++
		} else {
			report.Manual++
		}
		if e.LastSyncedAt != nil {
			entry.LastSynced = e.LastSyncedAt.String()
		}
		report.Entries = append(report.Entries, entry)
	}
	return report
}

// Tables implements Tabular.
func (r StatusReport) Tables() []Data {
	summary := Data{
		Title:   "Document",
		Headers: []string{"Property", "Value"},
		Rows: [][]string{
			{"Path", r.Document},
			{"Format", r.Format},
			{"Exists", strconv.FormatBool(r.Exists)},
			{"Synced", strconv.Itoa(r.Synced)},
			{"Manual", strconv.Itoa(r.Manual)},
			{"Group", orDash(r.Group)},
			{"Last Sync", orDash(r.LastSync)},
			{"Digest", r.Digest},
			{"Backups", strconv.Itoa(len(r.Backups))},
		},
		ColumnAlignment: []Align{AlignLeft, AlignLeft},
	}

	entries := Data{
		Title:   "Entries",
		Headers: []string{"Local User", "GitHub User", "Full Name", "Sudo", "Source", "Last Synced"},
	}
	for _, e := range r.Entries {
		entries.Rows = append(entries.Rows, []string{
			e.LoginHandle, e.ExternalHandle, e.FullName, orDash(e.Tier), e.Source, orDash(e.LastSynced),
		})
	}

	tables := []Data{summary, entries}
	if len(r.Backups) > 0 {
		backups := Data{Title: "Backups", Headers: []string{"#", "Path"}}
		for i, b := range r.Backups {
			backups.Rows = append(backups.Rows, []string{fmt.Sprint(i + 1), b})
		}
		tables = append(tables, backups)
	}
	return tables
}

// Check is one validation outcome.
type Check struct {
	Name    string `json:"name" yaml:"name"`
	OK      bool   `json:"ok" yaml:"ok"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// ValidationReport lists validation checks.
type ValidationReport struct {
	Checks []Check `json:"checks" yaml:"checks"`
}

// Add records a check outcome. A nil err passes.
func (r *ValidationReport) Add(name string, err error) {
	c := Check{Name: name, OK: err == nil}
	if err != nil {
		c.Message = err.Error()
	}
	r.Checks = append(r.Checks, c)
}

// Failed returns the failed checks.
func (r ValidationReport) Failed() []Check {
	var failed []Check
	for _, c := range r.Checks {
		if !c.OK {
			failed = append(failed, c)
		}
	}
	return failed
}

// Tables implements Tabular.
func (r ValidationReport) Tables() []Data {
	data := Data{Title: "Validation", Headers: []string{"Check", "Result", "Message"}}
	for _, c := range r.Checks {
		result := emoji.Success + " ok"
		if !c.OK {
			result = emoji.Error + " FAIL"
		}
		data.Rows = append(data.Rows, []string{c.Name, result, orDash(c.Message)})
	}
	return []Data{data}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinOrDash(values []string) string {
	return orDash(strings.Join(values, ", "))
}
