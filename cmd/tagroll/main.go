package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var (
	flagConfig  string
	flagJSON    bool
	flagVerbose bool
)

// errReported marks errors already shown to the user; main only sets the
// exit code for them.
var errReported = errors.New("error already reported")

var rootCmd = &cobra.Command{
	Use:   "tagroll",
	Short: "Record deployment tags and roll back to earlier ones",
	Long: `Tagroll keeps a linear history of deployment tags in a JSON file in the
working directory and rolls back by re-invoking the mechanism that deployed
them: docker images are pulled and restarted, git tags and commits are
checked out, pm2 processes are restarted.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to config file (default .tagroll.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Emit machine-readable JSON instead of formatted text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(nowCmd)
	rootCmd.AddCommand(toCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
