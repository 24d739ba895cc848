package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"robopress/internal/ports"
	"robopress/internal/thumbcache"
	"robopress/internal/usecase"
)

// Server exposes the browser-facing read API: the latest delta-annotated
// edition, the thumbnail proxy, and a health probe.
type Server struct {
	state   *usecase.State
	catalog ports.GameCatalog
	cache   *thumbcache.Cache
	logger  *slog.Logger
}

// NewServer wires the read-side collaborators.
func NewServer(state *usecase.State, catalog ports.GameCatalog, cache *thumbcache.Cache, logger *slog.Logger) *Server {
	return &Server{state: state, catalog: catalog, cache: cache, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/snapshot/latest", s.handleLatest)
	mux.HandleFunc("GET /api/thumbnails", s.handleThumbnails)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	view := s.state.View()
	if view == nil {
		if _, lastErr, _ := s.state.Health(); lastErr != nil {
			s.writeError(w, http.StatusInternalServerError, "snapshot unavailable")
			return
		}
		s.writeError(w, http.StatusNotFound, "no snapshot yet")
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleThumbnails(w http.ResponseWriter, r *http.Request) {
	ids := strings.TrimSpace(r.URL.Query().Get("universeIds"))
	if ids == "" {
		s.writeError(w, http.StatusBadRequest, "universeIds query parameter is required")
		return
	}

	if payload, ok := s.cache.Get(ids); ok {
		s.writeRaw(w, payload)
		return
	}

	payload, err := s.catalog.Thumbnails(r.Context(), ids)
	if err != nil {
		s.logger.Warn("thumbnail proxy failed", "ids", ids, "error", err)
		s.writeError(w, http.StatusBadGateway, "thumbnail upstream failed")
		return
	}

	s.cache.Set(ids, payload)
	s.writeRaw(w, payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	lastRunAt, lastErr, hasSnapshot := s.state.Health()

	body := map[string]any{
		"status":      "ok",
		"hasSnapshot": hasSnapshot,
	}
	if !lastRunAt.IsZero() {
		body["lastRunAt"] = lastRunAt.UTC().Format(time.RFC3339)
	}
	if lastErr != nil {
		body["status"] = "degraded"
		body["lastError"] = lastErr.Error()
	}

	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

func (s *Server) writeRaw(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		s.logger.Warn("response write failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
