package cmdutil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// Result contains the outcome of a single external command.
type Result struct {
	// Output is the combined stdout and stderr.
	Output []byte

	// ExitCode is the exit code of the command.
	ExitCode int

	// Duration is how long the command took to execute.
	Duration time.Duration
}

// OK reports whether the command exited successfully.
func (r *Result) OK() bool {
	return r.ExitCode == 0
}

// Run executes a command given as an argv slice in the given working
// directory. The returned Result is non-nil even when err is non-nil, so
// callers can inspect output and exit code of failed commands.
func Run(ctx context.Context, dir string, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return &Result{ExitCode: -1}, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	start := time.Now()
	output, err := cmd.CombinedOutput()

	result := &Result{
		Output:   output,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	} else {
		result.ExitCode = -1
	}

	if err != nil {
		return result, fmt.Errorf("command failed: %w", err)
	}

	return result, nil
}

// FormatCommand formats an argv slice into a readable string for logging
// and dry-run display.
// Example: ["docker", "run", "--name", "my app"] -> "docker run --name 'my app'"
func FormatCommand(argv []string) string {
	if len(argv) == 0 {
		return "<empty command>"
	}

	quoted := make([]string, len(argv))
	for i, part := range argv {
		if strings.ContainsAny(part, " \t\n\"'") {
			quoted[i] = shellquote.Join(part)
		} else {
			quoted[i] = part
		}
	}

	return strings.Join(quoted, " ")
}
