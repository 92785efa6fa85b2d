package main

import (
	"tagroll/internal/ui"

	"github.com/spf13/cobra"
)

var clearDryRun bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Erase the deployment history",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearDryRun, "dry-run", false, "Report the entry count without erasing anything")
}

func runClear(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	count, err := a.controller.Clear(clearDryRun)
	if err != nil {
		return fail(err)
	}

	if flagJSON {
		return emitJSON(map[string]any{"cleared": count, "dryRun": clearDryRun})
	}

	if clearDryRun {
		ui.Info("Dry run: would clear %d entries", count)
		return nil
	}
	ui.Success("Cleared %d entries", count)
	return nil
}
