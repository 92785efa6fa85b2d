package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tagroll/internal/detect"
	"tagroll/internal/dispatch"
	"tagroll/internal/history"
	"tagroll/pkg/cmdutil"
)

type fakeRunner struct {
	commands [][]string
	fail     bool
}

func (r *fakeRunner) Run(_ context.Context, argv []string) (*cmdutil.Result, error) {
	r.commands = append(r.commands, argv)
	if r.fail {
		return &cmdutil.Result{ExitCode: 1}, errors.New("exit status 1")
	}
	return &cmdutil.Result{ExitCode: 0}, nil
}

type nullConsole struct {
	dryRuns []string
}

func (c *nullConsole) DryRun(command string) {
	c.dryRuns = append(c.dryRuns, command)
}

func (c *nullConsole) Fallback(string) {}

func (c *nullConsole) Manual(string) {}

var _ dispatch.Console = (*nullConsole)(nil)

type fixture struct {
	controller *Controller
	store      *history.Store
	runner     *fakeRunner
	console    *nullConsole
	path       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), history.DefaultFileName)
	store := history.NewStore(path, nil)
	runner := &fakeRunner{}
	console := &nullConsole{}
	d := dispatch.New(runner, console, nil, nil)
	return &fixture{
		controller: New(store, d, nil),
		store:      store,
		runner:     runner,
		console:    console,
		path:       path,
	}
}

func (f *fixture) mustPush(t *testing.T, req PushRequest) *history.Entry {
	t.Helper()
	entry, err := f.controller.Push(req)
	if err != nil {
		t.Fatalf("Push(%q) failed: %v", req.Tag, err)
	}
	return entry
}

func TestPush_DetectsKind(t *testing.T) {
	f := newFixture(t)

	entry := f.mustPush(t, PushRequest{Tag: "v1.0.0"})
	if entry.Kind != detect.KindGit {
		t.Errorf("Expected git kind, got %q", entry.Kind)
	}
	if entry.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestPush_ExplicitOverride(t *testing.T) {
	f := newFixture(t)

	entry := f.mustPush(t, PushRequest{Tag: "v1.0.0", Kind: detect.KindCustom})
	if entry.Kind != detect.KindCustom {
		t.Errorf("Override should bypass detection, got %q", entry.Kind)
	}
}

func TestPush_EmptyTag(t *testing.T) {
	f := newFixture(t)

	if _, err := f.controller.Push(PushRequest{}); !errors.Is(err, ErrMissingTag) {
		t.Errorf("Expected ErrMissingTag, got %v", err)
	}
}

func TestStatus_DoesNotMutate(t *testing.T) {
	f := newFixture(t)
	f.mustPush(t, PushRequest{Tag: "v1.0.0"})

	before, err := os.ReadFile(f.path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := f.controller.Status(); err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if _, err := f.controller.List(20); err != nil {
			t.Fatalf("List failed: %v", err)
		}
	}

	after, err := os.ReadFile(f.path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("Status/List must not change persisted state")
	}
}

func TestRollbackToPrevious_InsufficientHistory(t *testing.T) {
	f := newFixture(t)

	if _, err := f.controller.RollbackToPrevious(context.Background(), false, ""); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("Empty history: expected ErrInsufficientHistory, got %v", err)
	}

	f.mustPush(t, PushRequest{Tag: "v1.0.0"})
	if _, err := f.controller.RollbackToPrevious(context.Background(), false, ""); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("Single entry: expected ErrInsufficientHistory, got %v", err)
	}
}

func TestRollbackToPrevious_Alternates(t *testing.T) {
	f := newFixture(t)
	f.mustPush(t, PushRequest{Tag: "A", Kind: detect.KindGit})
	f.mustPush(t, PushRequest{Tag: "B", Kind: detect.KindGit})

	// A,B -> now -> A,B,A -> now -> A,B,A,B
	expected := []string{"A", "B"}
	for _, want := range []string{"A", "B"} {
		result, err := f.controller.RollbackToPrevious(context.Background(), false, "")
		if err != nil {
			t.Fatalf("RollbackToPrevious failed: %v", err)
		}
		if result.To != want {
			t.Errorf("Expected rollback to %q, got %q", want, result.To)
		}
		expected = append(expected, want)
	}

	h, _ := f.store.Load()
	if len(h.Entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(h.Entries))
	}
	for i, want := range expected {
		if h.Entries[i].Tag != want {
			t.Errorf("Entry %d: expected %q, got %q", i, want, h.Entries[i].Tag)
		}
	}
}

func TestRollbackToPrevious_RecordsProvenance(t *testing.T) {
	f := newFixture(t)
	f.mustPush(t, PushRequest{Tag: "v1.0.0"})
	f.mustPush(t, PushRequest{Tag: "myapp:v2.0", Service: "web"})

	result, err := f.controller.RollbackToPrevious(context.Background(), false, "")
	if err != nil {
		t.Fatalf("RollbackToPrevious failed: %v", err)
	}

	if result.From != "myapp:v2.0" || result.To != "v1.0.0" || !result.Success {
		t.Errorf("Unexpected result: %+v", result)
	}

	h, _ := f.store.Load()
	last := h.Current()
	if last.Tag != "v1.0.0" {
		t.Errorf("Expected appended entry for v1.0.0, got %q", last.Tag)
	}
	if last.Metadata[history.MetadataRollbackFrom] != "myapp:v2.0" {
		t.Errorf("Expected rollbackFrom metadata, got %+v", last.Metadata)
	}
}

func TestRollbackToPrevious_DryRunDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	f.mustPush(t, PushRequest{Tag: "v1.0.0"})
	f.mustPush(t, PushRequest{Tag: "myapp:v2.0", Service: "web"})

	result, err := f.controller.RollbackToPrevious(context.Background(), true, "")
	if err != nil {
		t.Fatalf("Dry-run rollback failed: %v", err)
	}
	if !result.DryRun || !result.Success {
		t.Errorf("Unexpected result: %+v", result)
	}

	if len(f.runner.commands) != 0 {
		t.Errorf("Dry run must not execute commands, ran %v", f.runner.commands)
	}
	if len(f.console.dryRuns) == 0 {
		t.Error("Dry run should report intended commands")
	}

	h, _ := f.store.Load()
	if len(h.Entries) != 2 {
		t.Errorf("Dry run must not append, got %d entries", len(h.Entries))
	}
}

func TestRollbackToTag_NotFound(t *testing.T) {
	f := newFixture(t)
	f.mustPush(t, PushRequest{Tag: "v1.0.0"})

	_, err := f.controller.RollbackToTag(context.Background(), "v9.9.9", false, "")
	var notFound *TagNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected TagNotFoundError, got %v", err)
	}
	if notFound.Tag != "v9.9.9" {
		t.Errorf("Expected tag in error, got %q", notFound.Tag)
	}
}

func TestRollbackToTag_ResolvesLatestOccurrence(t *testing.T) {
	f := newFixture(t)
	f.mustPush(t, PushRequest{Tag: "X", Kind: detect.KindDocker, Service: "old-service"})
	f.mustPush(t, PushRequest{Tag: "Y", Kind: detect.KindGit})
	f.mustPush(t, PushRequest{Tag: "X", Kind: detect.KindDocker, Service: "new-service"})
	f.mustPush(t, PushRequest{Tag: "Z", Kind: detect.KindGit})

	result, err := f.controller.RollbackToTag(context.Background(), "X", false, "")
	if err != nil {
		t.Fatalf("RollbackToTag failed: %v", err)
	}
	if result.To != "X" {
		t.Errorf("Expected rollback to X, got %q", result.To)
	}

	h, _ := f.store.Load()
	if got := h.Current().Service; got != "new-service" {
		t.Errorf("Expected attributes of the later X (service new-service), got %q", got)
	}
}

func TestRollback_DispatchFailureDoesNotAppend(t *testing.T) {
	f := newFixture(t)
	f.mustPush(t, PushRequest{Tag: "v1.0.0"})
	f.mustPush(t, PushRequest{Tag: "v1.1.0"})
	f.runner.fail = true

	_, err := f.controller.RollbackToPrevious(context.Background(), false, "")
	var dispatchErr *dispatch.Error
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("Expected dispatch.Error, got %v", err)
	}

	h, _ := f.store.Load()
	if len(h.Entries) != 2 {
		t.Errorf("Failed rollback must not append, got %d entries", len(h.Entries))
	}
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	f.mustPush(t, PushRequest{Tag: "v1.0.0"})
	f.mustPush(t, PushRequest{Tag: "v1.1.0"})

	count, err := f.controller.Clear(true)
	if err != nil {
		t.Fatalf("Dry-run clear failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}

	h, _ := f.store.Load()
	if len(h.Entries) != 2 {
		t.Error("Dry-run clear must not mutate")
	}

	count, err = f.controller.Clear(false)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected pre-clear count 2, got %d", count)
	}

	h, _ = f.store.Load()
	if len(h.Entries) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(h.Entries))
	}
}

func TestEndToEnd_PushThenRollback(t *testing.T) {
	f := newFixture(t)

	git := f.mustPush(t, PushRequest{Tag: "v1.0.0"})
	if git.Kind != detect.KindGit {
		t.Errorf("Expected v1.0.0 classified git, got %q", git.Kind)
	}

	docker := f.mustPush(t, PushRequest{Tag: "myapp:v2.0", Service: "web"})
	if docker.Kind != detect.KindDocker || docker.Service != "web" {
		t.Errorf("Expected docker kind with service web, got %+v", docker)
	}

	// Dry run reports the checkout without mutating.
	if _, err := f.controller.RollbackToPrevious(context.Background(), true, ""); err != nil {
		t.Fatalf("Dry-run failed: %v", err)
	}
	if len(f.console.dryRuns) != 1 || f.console.dryRuns[0] != "git checkout v1.0.0" {
		t.Errorf("Expected dry-run checkout command, got %v", f.console.dryRuns)
	}
	h, _ := f.store.Load()
	if len(h.Entries) != 2 {
		t.Fatalf("Dry run mutated history: %d entries", len(h.Entries))
	}

	// Real rollback appends a third entry with provenance.
	if _, err := f.controller.RollbackToPrevious(context.Background(), false, ""); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	h, _ = f.store.Load()
	if len(h.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(h.Entries))
	}
	last := h.Current()
	if last.Tag != "v1.0.0" || last.Metadata[history.MetadataRollbackFrom] != "myapp:v2.0" {
		t.Errorf("Unexpected rollback entry: %+v", last)
	}
}
