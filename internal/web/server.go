// Package web serves the settings editor and a JSON status endpoint over
// HTTP. Saving valid settings triggers a live reload of the running core.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"

	"github.com/RonishNadar/mta-train-updates/internal/config"
)

var editorTmpl = template.Must(template.New("editor").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>MTA Display Settings</title></head>
<body style="font-family: sans-serif; max-width: 900px; margin: 20px auto;">
  <h2>MTA Display Settings</h2>
  <p>Edit the settings YAML and click Save. Invalid settings are rejected.</p>
  {{if .Message}}<p><strong>{{.Message}}</strong></p>{{end}}
  <form method="POST" action="/save">
    <textarea name="settings" style="width: 100%; height: 520px;">{{.Settings}}</textarea><br><br>
    <button type="submit">Save</button>
  </form>
</body>
</html>
`))

// Server serves the settings editor and status page.
type Server struct {
	httpServer *http.Server
	store      *config.FileStore
	status     func() any
	onReload   func(*config.Config)
}

// New creates a Server. status supplies the /status.json payload; onReload
// is invoked with the parsed config after a successful save.
func New(addr string, store *config.FileStore, status func() any, onReload func(*config.Config)) *Server {
	s := &Server{store: store, status: status, onReload: onReload}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/save", s.handleSave)
	mux.HandleFunc("/status.json", s.handleStatus)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}

	raw, err := s.store.ReadRaw()
	if err != nil {
		http.Error(w, fmt.Sprintf("read settings: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = editorTmpl.Execute(w, struct {
		Settings string
		Message  string
	}{Settings: string(raw), Message: r.URL.Query().Get("msg")})
	if err != nil {
		log.Printf("web: render editor: %v", err)
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := r.FormValue("settings")
	cfg, err := config.Parse([]byte(raw))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid settings: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.store.WriteRaw([]byte(raw)); err != nil {
		http.Error(w, fmt.Sprintf("save settings: %v", err), http.StatusInternalServerError)
		return
	}

	log.Printf("web: settings saved (%d stations), reloading", len(cfg.Stations))
	if s.onReload != nil {
		s.onReload(cfg)
	}
	http.Redirect(w, r, "/?msg=Saved", http.StatusSeeOther)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.status()); err != nil {
		log.Printf("web: encode status: %v", err)
	}
}
