package sync

import (
	"time"

	"github.com/spf13/cobra"

	syncopts "github.com/agentstation/accesssync/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	DryRun       bool
	Document     string
	Group        string
	StrictLookup bool
	Timeout      time.Duration
}

// addFlags registers the sync flags on cmd. Defaults come from the
// configured run options so --help shows the effective values.
func addFlags(cmd *cobra.Command, defaults *syncopts.Options) *Flags {
	flags := &Flags{}
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "compute the new document without writing it")
	cmd.Flags().StringVar(&flags.Document, "document", defaults.DocumentPath, "access document path")
	cmd.Flags().StringVar(&flags.Group, "group", defaults.Group, "directory group to mirror")
	cmd.Flags().BoolVar(&flags.StrictLookup, "strict-lookup", defaults.StrictLookup, "exit non-zero when the group lookup fails")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", defaults.Timeout, "overall time limit for one run")
	return flags
}

// Options converts the flags into run options. Only flags the user set
// override the configured defaults.
func (f *Flags) Options(cmd *cobra.Command) []syncopts.Option {
	var opts []syncopts.Option
	if f.DryRun {
		opts = append(opts, syncopts.WithDryRun(true))
	}
	if cmd.Flags().Changed("document") {
		opts = append(opts, syncopts.WithDocumentPath(f.Document))
	}
	if cmd.Flags().Changed("group") {
		opts = append(opts, syncopts.WithGroup(f.Group))
	}
	if cmd.Flags().Changed("strict-lookup") {
		opts = append(opts, syncopts.WithStrictLookup(f.StrictLookup))
	}
	if cmd.Flags().Changed("timeout") {
		opts = append(opts, syncopts.WithTimeout(f.Timeout))
	}
	return opts
}
