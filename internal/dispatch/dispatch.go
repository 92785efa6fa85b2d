// Package dispatch turns a rollback target into the external commands that
// realize it. Each deployment mechanism maps to a short fixed sequence of
// commands; the dispatcher never diffs current against target state, it
// always reconstructs the desired state from the target entry alone.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tagroll/internal/detect"
	"tagroll/internal/history"
	"tagroll/internal/journal"
	"tagroll/pkg/cmdutil"
)

// Step is one external command in a mechanism's sequence.
type Step struct {
	// Desc is a short human description used in errors and logs.
	Desc string

	// Argv is the command and its arguments.
	Argv []string

	// Tolerate marks a step whose failure does not abort the branch,
	// e.g. stopping a container that does not exist.
	Tolerate bool

	// Fallback is tried in order when this step fails. Used by the docker
	// branch: if compose cannot bring the service up, fall back to a plain
	// stop-then-run.
	Fallback []Step
}

// Error reports a failed external command. Steps already executed are not
// compensated; partial external effects can remain.
type Error struct {
	Command string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner executes a single external command.
type Runner interface {
	Run(ctx context.Context, argv []string) (*cmdutil.Result, error)
}

// ExecRunner runs commands in the working directory via os/exec.
type ExecRunner struct {
	Dir string
}

func (r *ExecRunner) Run(ctx context.Context, argv []string) (*cmdutil.Result, error) {
	return cmdutil.Run(ctx, r.Dir, argv)
}

// Console is the user-facing side channel for dry-run output and manual
// rollback instructions. The CLI backs it with styled terminal output;
// tests record the calls.
type Console interface {
	// DryRun reports a command that would execute.
	DryRun(command string)

	// Fallback reports a command that would execute only if the one
	// before it fails.
	Fallback(command string)

	// Manual tells the operator a custom tag needs manual action.
	Manual(tag string)
}

// Dispatcher executes the rollback command sequence for a target entry.
type Dispatcher struct {
	runner  Runner
	console Console
	journal *journal.Journal // optional
	logger  *slog.Logger
}

// New creates a dispatcher. journal may be nil to disable auditing.
func New(runner Runner, console Console, jnl *journal.Journal, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{runner: runner, console: console, journal: jnl, logger: logger}
}

// Execute runs (or, for dry runs, reports) the command sequence that
// redeploys target. current is used for logging only. serviceOverride, when
// non-empty, replaces the target entry's recorded service name.
//
// The first fatal command failure aborts the remaining steps of the branch.
func (d *Dispatcher) Execute(ctx context.Context, current, target history.Entry, dryRun bool, serviceOverride string) error {
	d.logger.Info("dispatching rollback",
		"from", current.Tag, "to", target.Tag, "kind", target.Kind, "dryRun", dryRun)

	service := serviceOverride
	if service == "" {
		service = target.Service
	}

	switch target.Kind {
	case detect.KindDocker:
		steps := dockerSteps(target.Tag, service)
		if len(steps) == 0 {
			d.logger.Warn("docker tag is not an image reference, nothing to run", "tag", target.Tag)
		}
		return d.runSteps(ctx, target, steps, dryRun)
	case detect.KindGit:
		return d.runSteps(ctx, target, gitSteps(target.Tag), dryRun)
	case detect.KindPM2:
		return d.runSteps(ctx, target, pm2Steps(target.Tag), dryRun)
	case detect.KindCustom:
		d.console.Manual(target.Tag)
		return nil
	default:
		// Unknown kinds come from explicit --type overrides; treat them
		// like custom and leave the action to the operator.
		d.console.Manual(target.Tag)
		return nil
	}
}

// dockerSteps builds the docker branch. A tag without a colon is not an
// image reference (only possible via an explicit type override); there is
// nothing to pull, so the plan is empty.
func dockerSteps(tag, service string) []Step {
	if !strings.Contains(tag, ":") {
		return nil
	}

	steps := []Step{
		{Desc: "pull image", Argv: []string{"docker", "pull", tag}},
	}

	// Without a service name there is nothing to restart; the pull alone
	// is a known limitation, not an error.
	if service == "" {
		return steps
	}

	steps = append(steps, Step{
		Desc: "compose up service",
		Argv: []string{"docker", "compose", "up", "-d", service},
		Fallback: []Step{
			// The container may not exist; that is fine.
			{Desc: "stop container", Argv: []string{"docker", "stop", service}, Tolerate: true},
			{Desc: "run container", Argv: []string{"docker", "run", "-d", "--name", service, tag}},
		},
	})

	return steps
}

// gitSteps checks out the tag directly; works for tag names and raw
// commit hashes alike.
func gitSteps(tag string) []Step {
	return []Step{
		{Desc: "checkout", Argv: []string{"git", "checkout", tag}},
	}
}

func pm2Steps(tag string) []Step {
	name := detect.PM2ProcessName(tag)
	return []Step{
		{Desc: "restart process", Argv: []string{"pm2", "restart", name}},
	}
}

// runSteps walks the step sequence. Dry runs follow the same structure and
// report every command the branch would run; only the final execution is
// skipped. Fallback commands are reported too, marked as conditional,
// since a dry run cannot know whether the primary step would fail.
func (d *Dispatcher) runSteps(ctx context.Context, target history.Entry, steps []Step, dryRun bool) error {
	for _, step := range steps {
		if dryRun {
			d.console.DryRun(cmdutil.FormatCommand(step.Argv))
			d.journalStep(ctx, target, step, true, 0, 0, nil)
			for _, fb := range step.Fallback {
				d.console.Fallback(cmdutil.FormatCommand(fb.Argv))
			}
			continue
		}

		if err := d.runStep(ctx, target, step); err != nil {
			if len(step.Fallback) == 0 {
				return err
			}
			d.logger.Warn("step failed, trying fallback", "step", step.Desc, "error", err)
			for _, fb := range step.Fallback {
				if err := d.runStep(ctx, target, fb); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// runStep executes one command. Tolerated failures are logged and
// swallowed; anything else becomes a *Error.
func (d *Dispatcher) runStep(ctx context.Context, target history.Entry, step Step) error {
	command := cmdutil.FormatCommand(step.Argv)
	d.logger.Debug("running command", "step", step.Desc, "command", command)

	result, err := d.runner.Run(ctx, step.Argv)

	exitCode := -1
	var durationMS int64
	var output string
	if result != nil {
		exitCode = result.ExitCode
		durationMS = result.Duration.Milliseconds()
		output = string(result.Output)
	}
	d.journalStep(ctx, target, step, false, exitCode, durationMS, err)

	if err != nil {
		if step.Tolerate {
			d.logger.Debug("tolerated step failure", "step", step.Desc, "error", err)
			return nil
		}
		return &Error{Command: command, Output: output, Err: err}
	}

	return nil
}

func (d *Dispatcher) journalStep(ctx context.Context, target history.Entry, step Step, dryRun bool, exitCode int, durationMS int64, runErr error) {
	if d.journal == nil {
		return
	}

	rec := &journal.Record{
		Tag:        target.Tag,
		Kind:       string(target.Kind),
		Command:    cmdutil.FormatCommand(step.Argv),
		DryRun:     dryRun,
		ExitCode:   exitCode,
		DurationMS: durationMS,
	}
	if runErr != nil {
		msg := runErr.Error()
		rec.ErrorMessage = &msg
	}

	if _, err := d.journal.Append(ctx, rec); err != nil {
		// Auditing must not fail a rollback.
		d.logger.Warn("failed to journal command", "error", err)
	}
}
