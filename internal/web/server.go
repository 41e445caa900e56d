// Package web provides the HTTP status and settings server for the
// termina-clock daemon, plus a websocket feed of the live clock face.
package web

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/termina-clock/internal/settings"
	"github.com/sweeney/termina-clock/internal/status"
	"github.com/sweeney/termina-clock/internal/termina"
)

// Server serves the clock face, status JSON, the settings API, and
// the websocket live feed.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	store      *settings.Store
	hub        *hub
}

// New creates a Server that reads state from the given tracker and
// applies setting changes to the given store.
func New(addr string, tracker *status.Tracker, store *settings.Store) *Server {
	s := &Server{
		tracker: tracker,
		store:   store,
		hub:     newHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/debug/advance", s.handleDebugAdvance)
	mux.HandleFunc("/api/debug/reset", s.handleDebugReset)
	mux.HandleFunc("/api/debug/offset", s.handleDebugOffset)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// StartHub launches the websocket hub and the display poller. Both
// stop when ctx is cancelled. Call before serving /ws.
func (s *Server) StartHub(ctx context.Context) {
	go s.hub.run(ctx)
	go s.pollDisplay(ctx)
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
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handleSettings applies a partial settings update. The update is
// all-or-nothing: any invalid field rejects the whole request and no
// setting changes.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var u settings.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	applied, err := s.store.Apply(time.Now(), u)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	if u.EndsAt != nil {
		log.Printf("web: cycle ends %s (day 1 began %s)",
			applied.EpochEnd.Format(time.RFC3339),
			termina.CycleStart(applied.EpochEnd, applied.Mode.Length()).Format(time.RFC3339))
	}
	log.Printf("web: settings applied: mode=%s end=%s", applied.Mode, applied.EpochEnd.Format(time.RFC3339))
	writeJSON(w, map[string]interface{}{"settings": status.BuildSettings(applied)})
}

type secondsRequest struct {
	Seconds float64 `json:"seconds"`
}

func (s *Server) handleDebugAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req secondsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	offset := s.store.AdvanceDebug(time.Duration(req.Seconds * float64(time.Second)))
	direction := "forward"
	if req.Seconds < 0 {
		direction = "backward"
	}
	log.Printf("web: debug time moved %s by %.1fs (offset %.1fs)", direction, math.Abs(req.Seconds), offset.Seconds())
	writeJSON(w, map[string]float64{"debug_offset_seconds": offset.Seconds()})
}

func (s *Server) handleDebugReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	s.store.ResetDebug()
	log.Printf("web: debug time offset reset")
	writeJSON(w, map[string]float64{"debug_offset_seconds": 0})
}

func (s *Server) handleDebugOffset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req secondsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	s.store.SetDebugOffset(time.Duration(req.Seconds * float64(time.Second)))
	log.Printf("web: debug time offset set to %.1fs", req.Seconds)
	writeJSON(w, map[string]float64{"debug_offset_seconds": req.Seconds})
}

type errorResponse struct {
	Error string `json:"error"`
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
