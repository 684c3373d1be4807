package acquisition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStageFailed matches every StageError.
var ErrStageFailed = errors.New("pipeline stage failed")

// ErrToolUnavailable is returned by Check when an external tool cannot be run.
var ErrToolUnavailable = errors.New("external tool unavailable")

// maxDiagnosticLines caps how much tool output is quoted in an error message.
const maxDiagnosticLines = 5

// StageError reports a failed download or conversion. Output holds the
// tool's captured diagnostics.
type StageError struct {
	Stage   Stage
	Message string
	Output  string
	Cause   error
}

func (e *StageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed: %s", e.Stage, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if tail := tailLines(e.Output, maxDiagnosticLines); tail != "" {
		b.WriteString("\n")
		b.WriteString(tail)
	}
	return b.String()
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrStageFailed) match any stage failure.
func (e *StageError) Is(target error) bool {
	return target == ErrStageFailed
}

func tailLines(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
