// Package api implements the local HTTP API the desktop shell talks to.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/desktopfriends/petagent/internal/agent"
	"github.com/desktopfriends/petagent/internal/buildinfo"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	manager *agent.Manager
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates the API server for a persona manager. The
// http.Server is built here so Shutdown is safe to call from another
// goroutine no matter when Start runs.
func NewServer(address string, port int, manager *agent.Manager, logger *slog.Logger) *Server {
	s := &Server{
		address: address,
		port:    port,
		manager: manager,
		logger:  logger,
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", address, port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // tool-calling turns can be slow
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	mux.HandleFunc("GET /v1/personas", s.handlePersonas)
	mux.HandleFunc("POST /v1/personas/{id}/chat", s.handleChat)
	mux.HandleFunc("GET /v1/personas/{id}/tools", s.handleTools)
	mux.HandleFunc("GET /v1/personas/{id}/expression", s.handleExpression)
	mux.HandleFunc("POST /v1/personas/{id}/clear", s.handleClear)
	mux.HandleFunc("PUT /v1/personas/{id}/config", s.handleUpdateConfig)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests. It blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}

// session resolves the persona id path value, writing a 404 on miss.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*agent.Session, bool) {
	id := r.PathValue("id")
	sess, ok := s.manager.Session(id)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("unknown persona: %s", id))
		return nil, false
	}
	return sess, true
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "petagentd",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"personas": s.manager.IDs()}, s.logger)
}

// ChatRequest is the body for POST /v1/personas/{id}/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := sess.SendMessage(r.Context(), req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", "error", err)
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, reply, s.logger)
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"tools": sess.Tools()}, s.logger)
}

func (s *Server) handleExpression(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, sess.ExpressionState(), s.logger)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.ClearHistory(); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "cleared"}, s.logger)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	cfg := sess.Config()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := sess.UpdateConfig(cfg); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "updated"}, s.logger)
}
