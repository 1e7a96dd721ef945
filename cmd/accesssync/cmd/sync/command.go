// Package sync provides the sync command implementation.
package sync

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agentstation/accesssync/internal/cmd/application"
	"github.com/agentstation/accesssync/internal/cmd/output"
)

// NewCommand creates the sync command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Mirror the directory group into the access document",
		Long: `Sync reads the members of the configured directory group and rewrites
the synced entries of the access document to match.

The command will:
• Load the current access document (or start from defaults)
• Authenticate to the directory and list the group members
• Skip members without a GitHub handle in the configured attribute
• Keep every entry that was added by hand
• Back up the previous document and write the new one

A failed group lookup is treated as an empty group. Unless
--strict-lookup=false is given the command still exits non-zero.`,
		Example: `  accesssync sync                           # Sync the configured group
  accesssync sync --dry-run                 # Preview changes
  accesssync sync --group "Platform Team"   # Sync a different group
  accesssync sync -o json                   # Print the run report as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), cmd, app, flags)
		},
	}

	flags = addFlags(cmd, app.SyncOptions())

	return cmd
}

// Execute runs one sync and prints its report.
func Execute(ctx context.Context, cmd *cobra.Command, app application.Application, flags *Flags) error {
	syncer, err := app.Syncer()
	if err != nil {
		return err
	}

	format, err := output.ResolveFormat(app.OutputFormat())
	if err != nil {
		return err
	}

	result, syncErr := syncer.Sync(ctx, flags.Options(cmd)...)
	if result != nil {
		formatter := output.NewFormatter(format)
		if err := formatter.Format(cmd.OutOrStdout(), output.NewSyncReport(result)); err != nil {
			return err
		}
	}
	return syncErr
}
