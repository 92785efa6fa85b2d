package main

import (
	"context"
	"fmt"
	"time"

	"tagroll/internal/config"
	"tagroll/internal/journal"
	"tagroll/internal/ui"

	"github.com/spf13/cobra"
)

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recently executed external commands",
	Long: `Show the audit journal of external commands run by rollbacks.

The journal is disabled unless the config file enables it:

  journal:
    enabled: true`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 0, "Maximum records to show (default from config, 20)")
}

func runJournal(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	if a.journal == nil {
		return fail(fmt.Errorf("journal is disabled; enable it in %s", config.DefaultFileName))
	}

	limit := journalLimit
	if limit <= 0 {
		limit = a.cfg.Limit
	}

	records, err := a.journal.Recent(context.Background(), limit)
	if err != nil {
		return fail(err)
	}

	if flagJSON {
		return emitJSON(records)
	}

	if len(records) == 0 {
		ui.Muted("No commands journaled.")
		return nil
	}

	for _, rec := range records {
		printJournalRecord(rec)
	}
	return nil
}

func printJournalRecord(rec journal.Record) {
	prefix := ""
	if rec.DryRun {
		prefix = "[dry-run] "
	}

	line := fmt.Sprintf("%s%s  (%s %s)  %s",
		prefix, rec.Command, rec.Kind, rec.Tag,
		rec.ExecutedAt.Local().Format(time.RFC3339))

	if rec.ErrorMessage != nil {
		ui.Warn("%s", line)
		ui.Muted("      exit %d: %s", rec.ExitCode, *rec.ErrorMessage)
		return
	}
	ui.Info("%s", line)
}
