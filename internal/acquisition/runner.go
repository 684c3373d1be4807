package acquisition

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultWaitDelay is how long a tool gets to exit after being interrupted before it is killed.
const DefaultWaitDelay = 5 * time.Second

// CommandResult is the captured outcome of one external tool invocation.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stderr followed by stdout, trimmed.
func (r CommandResult) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stderr) + "\n" + strings.TrimSpace(r.Stdout))
}

// Runner abstracts process execution so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner executes commands via os/exec. When ctx is cancelled the child
// receives an interrupt and is killed if it has not exited after WaitDelay.
type ExecRunner struct {
	WaitDelay time.Duration
}

// Run executes one command and captures stdout, stderr and the exit code.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}
