// Package server exposes the generation pipeline over HTTP: a streaming
// generate endpoint, a synchronous variant, and Kubernetes-style health
// probes, with graceful shutdown and connection draining.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/appforge/internal/health"
	"github.com/felixgeelhaar/appforge/internal/log"
	"github.com/felixgeelhaar/appforge/internal/pipeline"
)

// Config holds server configuration.
type Config struct {
	// Address is the listen address (e.g., ":8080").
	Address string `yaml:"address,omitempty" json:"address,omitempty"`

	// ShutdownTimeout bounds connection draining during shutdown.
	// Defaults to 30 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" json:"shutdown_timeout,omitempty"`

	// ReadTimeout bounds reading an entire request. Defaults to 10 seconds.
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`

	// WriteTimeout bounds one response. Generation streams for the whole
	// run, so the default is the 10-minute operation ceiling.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`

	// IdleTimeout bounds keep-alive idle time. Defaults to 60 seconds.
	IdleTimeout time.Duration `yaml:"idle_timeout,omitempty" json:"idle_timeout,omitempty"`

	// OperationTimeout is the coarse ceiling over one whole generation run.
	// There is no per-task timeout below it. Defaults to 10 minutes.
	OperationTimeout time.Duration `yaml:"operation_timeout,omitempty" json:"operation_timeout,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.OperationTimeout == 0 {
		c.OperationTimeout = 10 * time.Minute
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = c.OperationTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	return c
}

// Server serves generation requests and health probes.
type Server struct {
	httpServer       *http.Server
	pipeline         *pipeline.Pipeline
	probeManager     *health.ProbeManager
	logger           *log.Logger
	inShutdown       atomic.Bool
	shutdownTimeout  time.Duration
	operationTimeout time.Duration
}

// NewServer wires the pipeline and probe manager into an HTTP server.
func NewServer(p *pipeline.Pipeline, probeManager *health.ProbeManager, cfg Config) *Server {
	cfg = cfg.withDefaults()

	s := &Server{
		pipeline:         p,
		probeManager:     probeManager,
		logger:           log.DefaultLogger(),
		shutdownTimeout:  cfg.ShutdownTimeout,
		operationTimeout: cfg.OperationTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/generate/sync", s.handleGenerateSync)
	mux.HandleFunc("/health/live", s.handleLiveness)
	mux.HandleFunc("/health/ready", s.handleReadiness)
	mux.HandleFunc("/health/startup", s.handleStartup)
	mux.HandleFunc("/healthz", s.handleReadiness)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the server. Blocks until stopped; returns
// http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.probeManager.MarkInitialized()
	s.logger.Info("server listening", "address", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections gracefully: readiness probes start failing,
// keep-alives stop, and existing requests get ShutdownTimeout to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.probeManager.MarkShutdown()
	s.httpServer.SetKeepAlivesEnabled(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// IsShuttingDown reports whether shutdown started.
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}

func (s *Server) writeProbeResponse(w http.ResponseWriter, result *health.ProbeResult, unhealthyStatus int) {
	w.Header().Set("Content-Type", "application/json")

	if result.Status == health.StatusUnhealthy {
		w.WriteHeader(unhealthyStatus)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

// GET /health/live. Always 200; a draining process is still alive.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeProbeResponse(w, s.probeManager.CheckLiveness(r.Context()), http.StatusOK)
}

// GET /health/ready. 503 while shutting down or with unhealthy dependencies.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeProbeResponse(w, s.probeManager.CheckReadiness(r.Context()), http.StatusServiceUnavailable)
}

// GET /health/startup. 503 until initialization completed.
func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeProbeResponse(w, s.probeManager.CheckStartup(r.Context()), http.StatusServiceUnavailable)
}
