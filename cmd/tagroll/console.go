package main

import (
	"fmt"
	"os"

	"tagroll/internal/dispatch"
	"tagroll/internal/ui"
)

// console renders dispatcher side-channel output. In JSON mode the
// machine-readable result object owns stdout, so dry-run intent and manual
// instructions go to stderr as plain text.
type console struct {
	jsonMode bool
}

func newConsole(jsonMode bool) dispatch.Console {
	return &console{jsonMode: jsonMode}
}

func (c *console) DryRun(command string) {
	if c.jsonMode {
		fmt.Fprintf(os.Stderr, "[dry-run] %s\n", command)
		return
	}
	ui.Command("[dry-run] %s", command)
}

func (c *console) Fallback(command string) {
	if c.jsonMode {
		fmt.Fprintf(os.Stderr, "[dry-run] (fallback) %s\n", command)
		return
	}
	ui.Muted("[dry-run] (fallback) %s", command)
}

func (c *console) Manual(tag string) {
	if c.jsonMode {
		fmt.Fprintf(os.Stderr, "custom deployment %q: roll back manually\n", tag)
		return
	}
	ui.Warn("Custom deployment %q: roll back manually", tag)
}
