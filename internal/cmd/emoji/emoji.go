// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols shared by commands.
const (
	// Success marks a completed operation.
	Success = "✓"

	// Error marks a failed operation.
	Error = "✗"

	// Stop marks shutdowns.
	Stop = "■"
)
