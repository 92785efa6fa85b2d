package main

import (
	"tagroll/internal/history"
	"tagroll/internal/ui"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current and previous deployments",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	status, err := a.controller.Status()
	if err != nil {
		return fail(err)
	}

	if flagJSON {
		return emitJSON(status.Payload())
	}

	if status.TotalCount == 0 {
		ui.Muted("No deployments recorded.")
		return nil
	}

	printStatusEntry("Current", status.Current)
	printStatusEntry("Previous", status.Previous)
	ui.Info("Total deploys: %d", status.TotalCount)
	for kind, count := range status.CountByKind {
		ui.Muted("  %s: %d", kind, count)
	}
	return nil
}

func printStatusEntry(label string, entry *history.Entry) {
	if entry == nil {
		ui.Muted("%s: none", label)
		return
	}
	ui.Info("%s: %s (%s)", label, entry.Tag, entry.Kind)
}
