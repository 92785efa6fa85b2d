package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"tagroll/internal/controller"
	"tagroll/internal/history"
)

func newTestServer(t *testing.T) (*Server, *controller.Controller) {
	t.Helper()
	store := history.NewStore(filepath.Join(t.TempDir(), history.DefaultFileName), nil)
	ctrl := controller.New(store, nil, nil)
	return NewServer(ctrl, nil, 20), ctrl
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, ctrl := newTestServer(t)

	if _, err := ctrl.Push(controller.PushRequest{Tag: "v1.0.0"}); err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.Push(controller.PushRequest{Tag: "v1.1.0"}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var payload controller.StatusPayload
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if payload.TotalDeploys != 2 {
		t.Errorf("Expected 2 total deploys, got %d", payload.TotalDeploys)
	}
	if payload.Current == nil || payload.Current.Tag != "v1.1.0" {
		t.Errorf("Unexpected current: %+v", payload.Current)
	}
	if payload.Previous == nil || payload.Previous.Tag != "v1.0.0" {
		t.Errorf("Unexpected previous: %+v", payload.Previous)
	}
}

func TestHandleStatus_EmptyHistory(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var payload controller.StatusPayload
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Current != nil || payload.TotalDeploys != 0 {
		t.Errorf("Expected empty status, got %+v", payload)
	}
}

func TestHandleHistory(t *testing.T) {
	srv, ctrl := newTestServer(t)

	for _, tag := range []string{"a", "b", "c"} {
		if _, err := ctrl.Push(controller.PushRequest{Tag: tag}); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var entries []history.Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Tag != "c" || entries[1].Tag != "b" {
		t.Errorf("Expected most-recent-first, got %q, %q", entries[0].Tag, entries[1].Tag)
	}
}

func TestHandleHistory_InvalidLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=nope", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}
