package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"animeta/internal/config"
	"animeta/internal/logging"
	"animeta/internal/pipeline"
)

// Processor runs the four-stage pipeline for one title. Satisfied by
// *pipeline.Pipeline.
type Processor interface {
	Process(ctx context.Context, title string, seed pipeline.Seed, sink pipeline.ArtifactSink) pipeline.Result
}

// Server exposes the synchronous single-title pipeline over HTTP.
type Server struct {
	bind      string
	cfg       *config.Config
	processor Processor
	logger    *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer builds an HTTP server bound to cfg.Paths.APIBind.
func NewServer(cfg *config.Config, processor Processor, logger *slog.Logger) (*Server, error) {
	if cfg == nil || processor == nil {
		return nil, errors.New("api server requires config and processor")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{
		bind:      strings.TrimSpace(cfg.Paths.APIBind),
		cfg:       cfg,
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "api-server"),
	}
	if srv.bind == "" {
		return nil, errors.New("api bind address is empty")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/process", srv.handleProcess)
	mux.HandleFunc("/healthz", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           srv.withRequestID(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the configured HTTP handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listen address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request handled",
			logging.String(logging.FieldRequestID, requestID),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("elapsed", time.Since(started)))
	})
}

type processRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	result := s.processor.Process(r.Context(), title, pipeline.Seed{}, nil)
	s.writeJSON(w, http.StatusOK, result)
}

type healthResponse struct {
	Status   string               `json:"status"`
	Services config.ServiceStatus `json:"services"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	services := s.cfg.Services()
	status := "ok"
	code := http.StatusOK
	if !services.LLM || !services.Notion {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, healthResponse{Status: status, Services: services})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
