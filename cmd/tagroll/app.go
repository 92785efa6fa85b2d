package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"tagroll/internal/config"
	"tagroll/internal/controller"
	"tagroll/internal/dispatch"
	"tagroll/internal/history"
	"tagroll/internal/journal"
	"tagroll/internal/ui"
)

// app bundles the wired-up components for one command invocation.
type app struct {
	cfg        *config.Config
	store      *history.Store
	controller *controller.Controller
	journal    *journal.Journal // nil when disabled
}

// newApp loads config and wires store, dispatcher and controller.
func newApp() (*app, error) {
	configPath := flagConfig
	if configPath == "" {
		configPath = config.DefaultFileName
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	store := history.NewStore(cfg.HistoryFile, logger)

	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
	}

	runner := &dispatch.ExecRunner{}
	d := dispatch.New(runner, newConsole(flagJSON), jnl, logger)

	return &app{
		cfg:        cfg,
		store:      store,
		controller: controller.New(store, d, logger),
		journal:    jnl,
	}, nil
}

// Close releases the journal database if one is open.
func (a *app) Close() {
	if a.journal != nil {
		a.journal.Close()
	}
}

// emitJSON writes a machine-readable result object to stdout.
func emitJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// fail reports an error in the active output mode and returns errReported
// so main exits 1 without printing it again.
func fail(err error) error {
	if flagJSON {
		emitJSON(map[string]any{"error": err.Error()})
	} else {
		ui.Error("Error: %v", err)
	}
	return errReported
}

// parseMetadata turns repeated key=value flags into a map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta value %q, expected key=value", pair)
		}
		meta[key] = value
	}
	return meta, nil
}
