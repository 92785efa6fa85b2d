package cmdutil

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_Success(t *testing.T) {
	result, err := Run(context.Background(), "", []string{"echo", "hello"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.OK() {
		t.Errorf("Expected exit code 0, got %d", result.ExitCode)
	}
	if !strings.Contains(string(result.Output), "hello") {
		t.Errorf("Expected output to contain 'hello', got %q", result.Output)
	}
	if result.Duration <= 0 {
		t.Error("Expected non-zero duration")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	result, err := Run(context.Background(), "", []string{"sh", "-c", "exit 3"})
	if err == nil {
		t.Fatal("Expected error for non-zero exit")
	}

	if result.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", result.ExitCode)
	}
	if result.OK() {
		t.Error("Expected OK() to be false")
	}
}

func TestRun_EmptyCommand(t *testing.T) {
	_, err := Run(context.Background(), "", nil)
	if err == nil {
		t.Fatal("Expected error for empty command")
	}
}

func TestRun_WorkingDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	result, err := Run(context.Background(), tmpDir, []string{"pwd"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := strings.TrimSpace(string(result.Output))
	want, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Expected pwd output %q, got %q", want, got)
	}
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"simple", []string{"git", "checkout", "v1.0.0"}, "git checkout v1.0.0"},
		{"quoted spaces", []string{"docker", "run", "--name", "my app"}, "docker run --name 'my app'"},
		{"empty", nil, "<empty command>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCommand(tt.argv); got != tt.want {
				t.Errorf("FormatCommand(%v) = %q, want %q", tt.argv, got, tt.want)
			}
		})
	}
}
