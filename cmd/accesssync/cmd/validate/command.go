// Package validate provides the validate command implementation.
package validate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/accesssync/internal/cmd/application"
	"github.com/agentstation/accesssync/internal/cmd/output"
)

// NewCommand creates the validate command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var document string

	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Validate configuration and the access document",
		Long: `Validate checks the configuration and the access document without
contacting the directory or writing anything.

The checks are:
  - Configuration: directory kind, credentials present, sudo defaults
  - Document: the access document parses (a missing one is fine)`,
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

// Execute runs every check and prints the report. It fails when any
// check failed.
func Execute(cmd *cobra.Command, app application.Application, path string) error {
	format, err := output.ResolveFormat(app.OutputFormat())
	if err != nil {
		return err
	}

	var report output.ValidationReport
	report.Add("configuration", app.ValidateConfig())

	_, err = app.Store().Load(path)
	report.Add("document", err)

	if err := output.NewFormatter(format).Format(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("validation failed: %d of %d checks", len(failed), len(report.Checks))
	}
	return nil
}
