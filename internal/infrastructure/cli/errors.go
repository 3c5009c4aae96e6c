package cli

import "errors"

// Sentinel errors that map to exit code 2: the run worked, but the world
// does not match the document.
var (
	ErrDriftDetected  = errors.New("drift detected")
	ErrPartialFailure = errors.New("sync completed with failures")
)

// ExitCode maps a command error to the process exit code: 0 clean, 2 for
// detected drift or partial apply, 1 for operational failures.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrDriftDetected), errors.Is(err, ErrPartialFailure):
		return 2
	default:
		return 1
	}
}
