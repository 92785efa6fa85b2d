package main

import (
	"context"
	"errors"
	"strings"

	"tagroll/internal/controller"
	"tagroll/internal/dispatch"
	"tagroll/internal/ui"

	"github.com/spf13/cobra"
)

var (
	rollbackDryRun  bool
	rollbackService string
)

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Roll back to the previous deployment",
	Long: `Roll back to the second-to-last recorded deployment.

A successful rollback is recorded as a new history entry, so running now
repeatedly alternates between the two most recent distinct tags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRollback(func(ctx context.Context, a *app) (*controller.RollbackResult, error) {
			return a.controller.RollbackToPrevious(ctx, rollbackDryRun, rollbackService)
		})
	},
}

var toCmd = &cobra.Command{
	Use:   "to <tag>",
	Short: "Roll back to a specific recorded tag",
	Long: `Roll back to the most recent occurrence of the given tag in the history.

If the tag was pushed more than once, the attributes of the later push are
used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRollback(func(ctx context.Context, a *app) (*controller.RollbackResult, error) {
			return a.controller.RollbackToTag(ctx, args[0], rollbackDryRun, rollbackService)
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{nowCmd, toCmd} {
		cmd.Flags().BoolVar(&rollbackDryRun, "dry-run", false, "Show the commands without running them")
		cmd.Flags().StringVarP(&rollbackService, "service", "s", "", "Override the recorded service/container name")
	}
}

func runRollback(execute func(context.Context, *app) (*controller.RollbackResult, error)) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	result, err := execute(context.Background(), a)
	if err != nil {
		return failRollback(err)
	}

	if flagJSON {
		return emitJSON(result)
	}

	if result.DryRun {
		ui.Info("Dry run: would roll back from %s to %s", result.From, result.To)
		return nil
	}
	ui.Success("Rolled back from %s to %s", result.From, result.To)
	return nil
}

// failRollback emits the rollback-specific failure shape in JSON mode.
func failRollback(err error) error {
	if flagJSON {
		emitJSON(map[string]any{"action": "rollback", "success": false, "error": err.Error()})
		return errReported
	}

	ui.Error("Rollback failed: %v", err)
	var dispatchErr *dispatch.Error
	if errors.As(err, &dispatchErr) && strings.TrimSpace(dispatchErr.Output) != "" {
		ui.Muted("%s", strings.TrimSpace(dispatchErr.Output))
	}
	return errReported
}
