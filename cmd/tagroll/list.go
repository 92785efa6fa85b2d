package main

import (
	"time"

	"tagroll/internal/history"
	"tagroll/internal/ui"

	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recorded deployments, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum entries to show (default from config, 20)")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	limit := listLimit
	if limit <= 0 {
		limit = a.cfg.Limit
	}

	entries, err := a.controller.List(limit)
	if err != nil {
		return fail(err)
	}

	if flagJSON {
		return emitJSON(entries)
	}

	if len(entries) == 0 {
		ui.Muted("No deployments recorded.")
		return nil
	}

	for i, entry := range entries {
		printEntry(i == 0, entry)
	}
	return nil
}

func printEntry(current bool, entry history.Entry) {
	marker := "  "
	if current {
		marker = "* "
	}

	line := marker + entry.Tag + "  (" + string(entry.Kind) + ")  " +
		entry.Timestamp.Local().Format(time.RFC3339)
	if current {
		ui.Info("%s", line)
	} else {
		ui.Muted("%s", line)
	}

	if entry.Service != "" {
		ui.Muted("      service: %s", entry.Service)
	}
	if from, ok := entry.Metadata[history.MetadataRollbackFrom]; ok {
		ui.Muted("      rolled back from: %s", from)
	}
}
