// Package status provides the status command implementation.
package status

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/accesssync/internal/cmd/application"
	"github.com/agentstation/accesssync/internal/cmd/output"
	"github.com/agentstation/accesssync/pkg/store"
)

// NewCommand creates the status command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var document string

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: "core",
		Short:   "Show the current access document",
		Long: `Status prints the access document as it is on disk: the entries,
whether each one was synced or added by hand, the last sync summary and
the backups left by previous runs. The directory is not contacted.`,
		Example: `  accesssync status                          # Show the configured document
  accesssync status --document ./mapping.json # Show another document
  accesssync status -o yaml                   # Print as YAML`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The configured path may have changed after flags were registered
			if !cmd.Flags().Changed("document") {
				document = app.SyncOptions().DocumentPath
			}
			return Execute(cmd, app, document)
		},
	}

	cmd.Flags().StringVar(&document, "document", app.SyncOptions().DocumentPath, "access document path")

	return cmd
}

// Execute prints the status report for the document at path.
func Execute(cmd *cobra.Command, app application.Application, path string) error {
	format, err := output.ResolveFormat(app.OutputFormat())
	if err != nil {
		return err
	}

	st := app.Store()
	doc, err := st.Load(path)
	if err != nil {
		return err
	}

	exists := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		exists = false
	}

	digest, err := store.Digest(doc)
	if err != nil {
		return err
	}

	backups, err := st.Backups(path)
	if err != nil {
		return err
	}

	report := output.NewStatusReport(path, st.Format(path).String(), exists, doc, digest, backups)
	return output.NewFormatter(format).Format(cmd.OutOrStdout(), report)
}
