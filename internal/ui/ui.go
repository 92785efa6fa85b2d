// Package ui holds the styled console output helpers for human-readable
// mode. JSON mode bypasses this package entirely.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Success prints a bold green line.
func Success(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Info prints a cyan line.
func Info(format string, args ...any) {
	fmt.Println(infoStyle.Render(fmt.Sprintf(format, args...)))
}

// Command prints a yellow line, used for external commands.
func Command(format string, args ...any) {
	fmt.Println(commandStyle.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a bold yellow line.
func Warn(format string, args ...any) {
	fmt.Println(warnStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints a bold red line.
func Error(format string, args ...any) {
	fmt.Println(errorStyle.Render(fmt.Sprintf(format, args...)))
}

// Muted prints a dim line, used for secondary detail.
func Muted(format string, args ...any) {
	fmt.Println(mutedStyle.Render(fmt.Sprintf(format, args...)))
}
