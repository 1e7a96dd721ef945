package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/accesssync/internal/cmd/emoji"
	"github.com/agentstation/accesssync/pkg/reconcile"
	"github.com/agentstation/accesssync/pkg/sync"
)

func sampleReport() SyncReport {
	return SyncReport{
		RunID:     "run-1",
		Group:     "IT-Team",
		Directory: "graph",
		Document:  "/etc/ssh-key-manager/user-mapping.json",
		Members:   2,
		Resolved:  1,
		Synced:    1,
		Manual:    1,
		Added:     []string{"bobsmith"},
		Removed:   []string{},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", "", false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"table", FormatTable, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, sampleReport()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "IT-Team", decoded["group"])
	assert.Equal(t, []any{"bobsmith"}, decoded["added"])
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, sampleReport()))
	assert.Contains(t, buf.String(), "group: IT-Team")
	assert.Contains(t, buf.String(), "- bobsmith")
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Sync")
	assert.Contains(t, out, "bobsmith")
	assert.Contains(t, out, "IT-Team")

	t.Run("non tabular falls back to JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"n": 1}))
		assert.JSONEq(t, `{"n": 1}`, buf.String())
	})
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatMarkdown).Format(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "## Sync")
	assert.Contains(t, out, "bobsmith")
}

func TestValidationReport(t *testing.T) {
	var report ValidationReport
	report.Add("config", nil)
	report.Add("document", errors.New("unexpected end of JSON input"))

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "document", failed[0].Name)

	tables := report.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"config", emoji.Success + " ok", "-"}, tables[0].Rows[0])
	assert.Equal(t, emoji.Error+" FAIL", tables[0].Rows[1][1])
}

func TestSyncReportResult(t *testing.T) {
	result := func(r SyncReport) string {
		for _, row := range r.Tables()[0].Rows {
			if row[0] == "Result" {
				return row[1]
			}
		}
		return ""
	}

	r := sampleReport()
	assert.Equal(t, emoji.Success+" committed", result(r))

	r.DryRun = true
	assert.Equal(t, emoji.Success+" dry run", result(r))

	r.LookupError = "lookup of group \"IT-Team\" in graph failed"
	assert.Equal(t, emoji.Warning+" completed with warnings", result(r))
}

func TestNewSyncReportUpdated(t *testing.T) {
	report := NewSyncReport(&sync.Result{
		Group:     "IT-Team",
		Reconcile: &reconcile.Result{Updated: []string{"bobsmith"}},
	})
	assert.Equal(t, []string{"bobsmith"}, report.Updated)
	assert.Empty(t, report.Added)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, report))
	assert.Contains(t, buf.String(), "Updated")
}
