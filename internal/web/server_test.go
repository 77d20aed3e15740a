package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RonishNadar/mta-train-updates/internal/config"
)

const testSettings = `app:
  poll_interval_sec: 60
  print_limit: 3
  http_timeout_sec: 10
  leave_buffer_min: 10
  temp_unit: F
  favorite_station_index: -1
stations:
  - stop_name: Astoria Blvd
    gtfs_stop_id: R04
    direction: S
    feed: NQRW
`

func newTestServer(t *testing.T) (*Server, *config.FileStore, *[]*config.Config) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(testSettings), 0o644); err != nil {
		t.Fatal(err)
	}
	store := &config.FileStore{Path: path}

	var reloads []*config.Config
	srv := New(":0", store, func() any {
		return map[string]string{"state": "running"}
	}, func(cfg *config.Config) {
		reloads = append(reloads, cfg)
	})
	return srv, store, &reloads
}

func TestEditorShowsSettings(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.handleIndex(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Astoria Blvd") {
		t.Error("expected the current settings in the editor")
	}
	if !strings.Contains(body, "<textarea") {
		t.Error("expected an editable textarea")
	}
}

func TestEditorUnknownPath(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.handleIndex(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func postSave(srv *Server, settings string) *httptest.ResponseRecorder {
	form := url.Values{"settings": {settings}}
	req := httptest.NewRequest(http.MethodPost, "/save", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.handleSave(rec, req)
	return rec
}

func TestSaveValidSettingsReloads(t *testing.T) {
	srv, store, reloads := newTestServer(t)

	updated := strings.Replace(testSettings, "print_limit: 3", "print_limit: 5", 1)
	rec := postSave(srv, updated)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after save, got %d: %s", rec.Code, rec.Body.String())
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("reload from disk failed: %v", err)
	}
	if cfg.App.PrintLimit != 5 {
		t.Errorf("expected saved print limit 5, got %d", cfg.App.PrintLimit)
	}

	if len(*reloads) != 1 {
		t.Fatalf("expected 1 reload callback, got %d", len(*reloads))
	}
	if (*reloads)[0].App.PrintLimit != 5 {
		t.Errorf("expected the parsed config passed to reload, got %+v", (*reloads)[0].App)
	}
}

func TestSaveInvalidSettingsRejected(t *testing.T) {
	srv, store, reloads := newTestServer(t)

	bad := strings.Replace(testSettings, "direction: S", "direction: X", 1)
	rec := postSave(srv, bad)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid settings, got %d", rec.Code)
	}
	if len(*reloads) != 0 {
		t.Error("invalid settings must not trigger a reload")
	}

	// The file on disk is untouched.
	raw, err := store.ReadRaw()
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != testSettings {
		t.Error("invalid settings must not be written to disk")
	}
}

func TestSaveRequiresPost(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/save", nil)
	rec := httptest.NewRecorder()
	srv.handleSave(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestStatusJSON(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status.json", nil)
	rec := httptest.NewRecorder()
	srv.handleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("status not valid JSON: %v", err)
	}
	if decoded["state"] != "running" {
		t.Errorf("unexpected status payload: %v", decoded)
	}
}
