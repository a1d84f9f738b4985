package compile

import (
	"fmt"

	"genassign/internal/texmerge"
)

// CompilationError reports a failed compilation unit: some pass exited
// non-zero, timed out, or produced no output document. Partial intermediate
// files from a failed unit never become artifacts.
type CompilationError struct {
	Record   string
	Mode     texmerge.Mode
	Pass     string
	ExitCode int
	Timeout  bool
	LogTail  string
	Cause    error
}

func (e *CompilationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Timeout {
		return fmt.Sprintf("compile %s (%s): %s pass timed out", e.Record, e.Mode, e.Pass)
	}
	if e.ExitCode != 0 {
		return fmt.Sprintf("compile %s (%s): %s pass exited %d", e.Record, e.Mode, e.Pass, e.ExitCode)
	}
	return fmt.Sprintf("compile %s (%s): %s", e.Record, e.Mode, e.Cause)
}

func (e *CompilationError) Unwrap() error { return e.Cause }
