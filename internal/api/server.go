// Package api is the HTTP surface: one engagement endpoint, session
// teardown, health and status probes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lurelab/lure/internal/engine"
	"github.com/lurelab/lure/internal/session"
	"github.com/lurelab/lure/internal/store"
)

// TurnEngine is the conversation pipeline behind the HTTP surface.
type TurnEngine interface {
	EngageTurn(ctx context.Context, in engine.Input) (engine.Output, error)
	EndSession(ctx context.Context, sessionID string) (engine.Snapshot, bool)
}

// StatsProvider reports archive counts for the status endpoint. Satisfied by
// store.Store; nil when the service runs without a database.
type StatsProvider interface {
	Stats(ctx context.Context) (store.Stats, error)
}

type Server struct {
	router  *chi.Mux
	port    int
	engine  TurnEngine
	repo    session.Repository
	stats   StatsProvider // optional
	apiKey  string
	started time.Time
}

func NewServer(port int, eng TurnEngine, repo session.Repository, stats StatsProvider, apiKey string) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		engine:  eng,
		repo:    repo,
		stats:   stats,
		apiKey:  apiKey,
		started: time.Now(),
	}

	router.Get("/health", s.health)
	router.Group(func(r chi.Router) {
		r.Use(s.auth)
		// Bare POST / kept for callers predating the versioned path.
		r.Post("/", s.engage)
		r.Post("/api/v1/engage", s.engage)
		r.Post("/api/v1/session/end", s.endSession)
		r.Get("/api/v1/status", s.status)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) engage(w http.ResponseWriter, r *http.Request) {
	var in engine.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if in.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	out, err := s.engine.EngageTurn(r.Context(), in)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "message text is empty")
			return
		}
		slog.Error("engagement turn failed", "session_id", in.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type endRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	snap, ok := s.engine.EndSession(r.Context(), req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "success",
		"sessionId":          snap.SessionID,
		"scamType":           snap.ScamType,
		"totalMessages":      len(snap.Messages),
		"artifactsCollected": len(snap.Intelligence),
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"service":        "lure",
		"status":         "engaging",
		"activeSessions": s.repo.Len(),
		"uptimeSeconds":  int(time.Since(s.started).Seconds()),
	}
	if s.stats != nil {
		if st, err := s.stats.Stats(r.Context()); err == nil {
			resp["archived"] = st
		} else {
			slog.Warn("failed to query archive stats", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"status": "error", "error": msg})
}
