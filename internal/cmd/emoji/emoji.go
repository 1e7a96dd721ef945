// Package emoji provides symbol constants for CLI output.
package emoji

// Symbol constants give the table output a consistent set of status marks.
const (
	// Success marks a passing check or a committed run.
	Success = "✓"

	// Error marks a failed check.
	Error = "✗"

	// Warning marks a run that completed with soft failures, such as
	// skipped members or a failed group lookup in lenient mode.
	Warning = "!"
)
