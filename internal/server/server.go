package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shed/internal/game"
	"shed/internal/session"
)

// Server is the HTTP server.
type Server struct {
	mux      *http.ServeMux
	registry *game.Registry
	manager  *session.Manager
	webFS    fs.FS
	log      *zap.Logger
}

// New creates a server with all routes.
// webFS should be the "web" subdirectory of the embedded filesystem.
func New(registry *game.Registry, manager *session.Manager, webFS fs.FS, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		mux:      http.NewServeMux(),
		registry: registry,
		manager:  manager,
		webFS:    webFS,
		log:      log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// API routes
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("POST /api/sessions/quick", s.handleQuickMatch)
	s.mux.HandleFunc("GET /api/sessions/{code}", s.handleGetSession)
	s.mux.HandleFunc("GET /api/sessions/{code}/ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /api/results", s.handleListResults)
	s.mux.HandleFunc("GET /api/results/player/{id}", s.handlePlayerResults)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// Static files
	s.mux.Handle("/", http.FileServer(http.FS(s.webFS)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

type createSessionRequest struct {
	GameType string `json:"gameType"`
	PlayerID string `json:"playerId"`
}

type createSessionResponse struct {
	Code     string `json:"code"`
	GameType string `json:"gameType"`
	PlayerID string `json:"playerId,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.GameType == "" || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "gameType and playerId required")
		return
	}

	sess, err := s.manager.Create(req.GameType)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	// The creator holds the first seat until their socket connects.
	if err := sess.Join(req.PlayerID, nil); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.save(sess)

	writeJSON(w, http.StatusCreated, createSessionResponse{Code: sess.Code, GameType: sess.GameType, PlayerID: req.PlayerID})
}

type quickMatchRequest struct {
	GameType string `json:"gameType"`
	PlayerID string `json:"playerId"`
}

// handleQuickMatch seats the caller in the oldest session that still has a
// free seat, creating one if needed. A caller without an id gets one.
func (s *Server) handleQuickMatch(w http.ResponseWriter, r *http.Request) {
	var req quickMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	if req.GameType == "" {
		req.GameType = "shed"
	}
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.PlayerID == "" {
		req.PlayerID = uuid.NewString()
	}
	sess, err := s.manager.QuickMatch(req.GameType, req.PlayerID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.save(sess)
	writeJSON(w, http.StatusOK, createSessionResponse{Code: sess.Code, GameType: sess.GameType, PlayerID: req.PlayerID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	rows, err := s.manager.Results(limit)
	if err != nil {
		s.log.Error("list results", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load results")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handlePlayerResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rows, err := s.manager.PlayerResults(id)
	if err != nil {
		s.log.Error("player results", zap.String("player", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load results")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Sessions: len(s.manager.List())})
}

func (s *Server) save(sess *session.Session) {
	if err := s.manager.SaveMatchState(sess); err != nil {
		s.log.Error("save match state", zap.String("session", sess.Code), zap.Error(err))
	}
}

func statusFor(err error) int {
	if errors.Is(err, session.ErrUnknownGameType) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
