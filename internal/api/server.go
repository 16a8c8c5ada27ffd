// Package api serves the session, chat and column endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/user/debatecoach/internal/bus"
	"github.com/user/debatecoach/internal/distill"
	"github.com/user/debatecoach/internal/gateway"
	"github.com/user/debatecoach/internal/state"
	"github.com/user/debatecoach/internal/types"
)

// Turns queues turns and manages session lifetime.
type Turns interface {
	Do(ctx context.Context, id types.SessionID, mode types.Mode, text string, hints types.Hints) (types.TurnResult, error)
	CreateSession(ctx context.Context, mode types.Mode) (types.SessionID, error)
	DeleteSession(ctx context.Context, id types.SessionID) error
}

// Distiller turns a coaching reply into column updates.
type Distiller interface {
	Distill(ctx context.Context, id types.SessionID, userText, markdown string, fallacies []types.Fallacy, summarize bool) ([]distill.Update, error)
}

var _ Turns = (*gateway.Gateway)(nil)

// Server is a lightweight HTTP handler for the coaching API.
type Server struct {
	turns     Turns
	sessions  types.SessionStore
	distiller Distiller
	hub       *bus.Hub
	mux       *http.ServeMux
}

// NewServer creates a Server. distiller and hub may be nil, in which case
// their endpoints answer 503.
func NewServer(turns Turns, sessions types.SessionStore, distiller Distiller, hub *bus.Hub) *Server {
	s := &Server{
		turns:     turns,
		sessions:  sessions,
		distiller: distiller,
		hub:       hub,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/session", s.handleCreateSession)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("POST /api/distill", s.handleDistill)
	s.mux.HandleFunc("GET /api/columns/{id}", s.handleColumns)
	s.mux.HandleFunc("GET /api/sessions", s.handleSessions)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("GET /api/stream/{id}", s.handleStream)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps unknown sessions to 404 and everything else to 500.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, state.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	slog.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	mode, err := types.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.turns.CreateSession(r.Context(), mode)
	if err != nil {
		writeStoreError(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": string(id), "mode": string(mode)})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserText  string `json:"user_text"`
	Mode      string `json:"mode"`
	Intent    string `json:"intent"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	var mode types.Mode
	if req.Mode != "" {
		m, err := types.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}

	id := types.SessionID(req.SessionID)
	res, err := s.turns.Do(r.Context(), id, mode, req.UserText, types.Hints{Intent: types.ParseIntent(req.Intent)})
	if errors.Is(err, state.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		slog.Error("turn failed", "session_id", req.SessionID, "error", err)
		res = gateway.FailureResult(err)
	}
	writeJSON(w, http.StatusOK, res)
}

type distillRequest struct {
	SessionID string          `json:"session_id"`
	UserText  string          `json:"user_text"`
	Markdown  string          `json:"markdown"`
	Fallacies []types.Fallacy `json:"fallacies"`
	Summarize bool            `json:"summarize"`
}

func (s *Server) handleDistill(w http.ResponseWriter, r *http.Request) {
	if s.distiller == nil {
		writeError(w, http.StatusServiceUnavailable, "distiller not configured")
		return
	}
	var req distillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	updates, err := s.distiller.Distill(r.Context(), types.SessionID(req.SessionID), req.UserText, req.Markdown, req.Fallacies, req.Summarize)
	if err != nil {
		writeStoreError(w, "distill", err)
		return
	}
	if updates == nil {
		updates = []distill.Update{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"updates": updates})
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := s.sessions.Export(r.Context(), types.SessionID(r.PathValue("id")))
	if err != nil {
		writeStoreError(w, "export columns", err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context())
	if err != nil {
		writeStoreError(w, "list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []types.SessionSummary{}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := types.SessionID(r.PathValue("id"))
	if err := s.turns.DeleteSession(r.Context(), id); err != nil {
		writeStoreError(w, "delete session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": string(id)})
}

// handleStream relays bus updates for one session as server-sent events
// until the client goes away or the hub closes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "stream not configured")
		return
	}
	id := types.SessionID(r.PathValue("id"))
	if _, err := s.sessions.Get(r.Context(), id); err != nil {
		writeStoreError(w, "open stream", err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, cancel := s.hub.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, u); err != nil {
				slog.Debug("stream write failed", "session_id", id, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, u bus.Update) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", u.Kind)
	fmt.Fprintf(&b, "data: %s\n\n", data)
	if _, err := w.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
