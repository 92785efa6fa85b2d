// Package controller implements the push/status/list/rollback/clear
// operations on top of the history store and the rollback dispatcher.
//
// A rollback is recorded as a new forward-moving entry, never a rewind:
// repeated "now" calls deliberately alternate between the two most recent
// distinct tags.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tagroll/internal/detect"
	"tagroll/internal/dispatch"
	"tagroll/internal/history"
)

// ErrMissingTag is returned when a required tag argument is empty.
var ErrMissingTag = errors.New("tag is required")

// ErrInsufficientHistory is returned when rolling back to the previous
// deployment with fewer than two recorded entries.
var ErrInsufficientHistory = errors.New("insufficient history: need at least 2 deployments to roll back")

// TagNotFoundError is returned when a rollback target tag has never been
// recorded.
type TagNotFoundError struct {
	Tag string
}

func (e *TagNotFoundError) Error() string {
	return fmt.Sprintf("tag %q not found in deployment history", e.Tag)
}

// Controller wires the history store and dispatcher together.
type Controller struct {
	store      *history.Store
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a controller.
func New(store *history.Store, dispatcher *dispatch.Dispatcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// PushRequest describes a deployment to record.
type PushRequest struct {
	Tag      string
	Kind     detect.Kind // empty means detect from the tag
	Service  string
	Metadata map[string]string
}

// Push records a deployment. The mechanism kind is detected from the tag
// unless the request carries an explicit override.
func (c *Controller) Push(req PushRequest) (*history.Entry, error) {
	if req.Tag == "" {
		return nil, ErrMissingTag
	}

	kind := req.Kind
	if kind == "" {
		kind = detect.Detect(req.Tag)
	}

	h, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	entry := history.Entry{
		Tag:       req.Tag,
		Kind:      kind,
		Timestamp: c.now().UTC(),
		Service:   req.Service,
		Metadata:  req.Metadata,
	}
	if err := c.store.Append(h, entry); err != nil {
		return nil, err
	}

	c.logger.Info("recorded deployment", "tag", entry.Tag, "kind", entry.Kind)
	return &entry, nil
}

// Status summarizes the history without mutating it.
type Status struct {
	Current     *history.Entry
	Previous    *history.Entry
	TotalCount  int
	CountByKind map[detect.Kind]int
}

// StatusPayload is the stable JSON shape emitted by the status command
// and the /api/status endpoint.
type StatusPayload struct {
	Current      *history.Entry `json:"current"`
	Previous     *history.Entry `json:"previous"`
	TotalDeploys int            `json:"totalDeploys"`
}

// Payload converts a status summary to its external JSON shape.
func (s *Status) Payload() StatusPayload {
	return StatusPayload{Current: s.Current, Previous: s.Previous, TotalDeploys: s.TotalCount}
}

// Status returns the current summary of the history.
func (c *Controller) Status() (*Status, error) {
	h, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	return &Status{
		Current:     h.Current(),
		Previous:    h.Previous(),
		TotalCount:  len(h.Entries),
		CountByKind: h.CountByKind(),
	}, nil
}

// List returns up to limit entries, most recent first.
func (c *Controller) List(limit int) ([]history.Entry, error) {
	h, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	return h.Recent(limit), nil
}

// RollbackResult is the stable, externally observable outcome of a
// rollback command.
type RollbackResult struct {
	Action  string `json:"action"`
	From    string `json:"from"`
	To      string `json:"to"`
	DryRun  bool   `json:"dryRun"`
	Success bool   `json:"success"`
}

// RollbackToPrevious rolls back to the second-to-last recorded deployment.
func (c *Controller) RollbackToPrevious(ctx context.Context, dryRun bool, serviceOverride string) (*RollbackResult, error) {
	h, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	target := h.Previous()
	if target == nil {
		return nil, ErrInsufficientHistory
	}

	return c.rollback(ctx, h, *h.Current(), *target, dryRun, serviceOverride)
}

// RollbackToTag rolls back to the most recent occurrence of tag in the
// history.
func (c *Controller) RollbackToTag(ctx context.Context, tag string, dryRun bool, serviceOverride string) (*RollbackResult, error) {
	if tag == "" {
		return nil, ErrMissingTag
	}

	h, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	target := h.FindMostRecentByTag(tag)
	if target == nil {
		return nil, &TagNotFoundError{Tag: tag}
	}

	return c.rollback(ctx, h, *h.Current(), *target, dryRun, serviceOverride)
}

// rollback dispatches the external commands and, on real (non-dry-run)
// success, appends a fresh entry for the target tag carrying rollback
// provenance. The append happens only after a successful dispatch, so a
// killed rollback never records a deployment that did not complete.
func (c *Controller) rollback(ctx context.Context, h *history.History, current, target history.Entry, dryRun bool, serviceOverride string) (*RollbackResult, error) {
	if err := c.dispatcher.Execute(ctx, current, target, dryRun, serviceOverride); err != nil {
		return nil, err
	}

	result := &RollbackResult{
		Action:  "rollback",
		From:    current.Tag,
		To:      target.Tag,
		DryRun:  dryRun,
		Success: true,
	}

	if dryRun {
		return result, nil
	}

	service := serviceOverride
	if service == "" {
		service = target.Service
	}

	entry := history.Entry{
		Tag:       target.Tag,
		Kind:      target.Kind,
		Timestamp: c.now().UTC(),
		Service:   service,
		Metadata:  map[string]string{history.MetadataRollbackFrom: current.Tag},
	}
	if err := c.store.Append(h, entry); err != nil {
		return nil, fmt.Errorf("rollback executed but history update failed: %w", err)
	}

	c.logger.Info("rollback recorded", "from", current.Tag, "to", target.Tag)
	return result, nil
}

// Clear empties the history and returns the number of entries removed.
// With dryRun it only reports the count.
func (c *Controller) Clear(dryRun bool) (int, error) {
	h, err := c.store.Load()
	if err != nil {
		return 0, err
	}

	if dryRun {
		return len(h.Entries), nil
	}

	return c.store.Clear(h)
}
