// Package runtime drives the container toolchain through subprocesses.
// Builds and compose operations shell out to docker and docker-compose
// so the daemon interaction matches what an operator would run by hand.
package runtime

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrTimeout is returned when a command exceeds its deadline.
	ErrTimeout = errors.New("command timed out")

	// ErrCommandFailed is returned when a command exits non-zero.
	ErrCommandFailed = errors.New("command failed")
)

// CommandError wraps a failed toolchain invocation with its output.
type CommandError struct {
	Op       string // Operation that failed (e.g., "BuildImage")
	Command  string // The command line that ran
	ExitCode int    // Exit code, -1 when unknown
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(op, command string, exitCode int, stderr string, err error) *CommandError {
	return &CommandError{
		Op:       op,
		Command:  command,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      err,
	}
}
