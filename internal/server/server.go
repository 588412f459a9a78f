// Package server exposes the playground engine over HTTP: the execute
// endpoint, the pattern catalog, session statistics, health, and a
// websocket feed of execution events.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patternlab/patternlab/internal/config"
	"github.com/patternlab/patternlab/internal/engine"
	"github.com/patternlab/patternlab/internal/logging"
	"github.com/patternlab/patternlab/internal/registry"
	"github.com/patternlab/patternlab/internal/session"
)

// PlaygroundServer wires the engine's pieces behind an http.Server.
type PlaygroundServer struct {
	config     *config.Config
	logger     logging.Logger
	registry   *registry.PatternRegistry
	sessions   *session.Store
	dispatcher *engine.Dispatcher
	limiter    *IPRateLimiter
	hub        *Hub

	httpServer *http.Server
	watcher    *registry.Watcher
	started    time.Time
}

// New assembles a server from configuration. Call Start to serve and
// Shutdown to tear everything down.
func New(cfg *config.Config, logger logging.Logger) (*PlaygroundServer, error) {
	reg := registry.NewPatternRegistry()

	if cfg.Patterns.File != "" {
		if err := registry.LoadOverlay(reg, cfg.Patterns.File, logger); err != nil {
			return nil, fmt.Errorf("loading patterns overlay: %w", err)
		}
	}

	sessions := session.NewStore(logger, session.WithIdleTTL(cfg.Playground.SessionTTL))
	hub := NewHub(logger)
	dispatcher := engine.NewDispatcher(reg, sessions, logger,
		engine.WithObserver(hub.BroadcastEvent))

	s := &PlaygroundServer{
		config:     cfg,
		logger:     logger.WithComponent("server"),
		registry:   reg,
		sessions:   sessions,
		dispatcher: dispatcher,
		limiter:    NewIPRateLimiter(cfg.RateLimit, logger),
		hub:        hub,
	}

	if cfg.Patterns.File != "" && cfg.Patterns.Watch {
		watcher, err := registry.NewWatcher(reg, cfg.Patterns.File, logger)
		if err != nil {
			return nil, fmt.Errorf("watching patterns overlay: %w", err)
		}
		s.watcher = watcher
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// routes builds the handler tree with the middleware chain applied.
func (s *PlaygroundServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/execute", s.limiter.Middleware(http.HandlerFunc(s.handleExecute)))
	mux.HandleFunc("GET /api/patterns", s.handleListPatterns)
	mux.HandleFunc("GET /api/patterns/{category}/{slug}", s.handleGetPattern)
	mux.HandleFunc("GET /api/sessions/stats", s.handleSessionStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket(s.allowedOrigins()))

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start begins serving and runs the background loops. Blocks until the
// listener fails or Shutdown is called.
func (s *PlaygroundServer) Start(ctx context.Context) error {
	s.started = time.Now()
	s.sessions.Start(s.config.Playground.SweepInterval)
	s.limiter.Start(5 * time.Minute)
	s.hub.Start(ctx)
	if s.watcher != nil {
		s.watcher.Start(ctx)
	}

	s.logger.Info(ctx, "playground server listening",
		"address", s.config.Address(),
		"patterns", s.registry.Count(),
		"environment", s.config.Server.Environment)

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the listener and the background loops.
func (s *PlaygroundServer) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down")

	err := s.httpServer.Shutdown(ctx)
	s.sessions.Stop()
	s.limiter.Stop()
	s.hub.Stop()
	if s.watcher != nil {
		if cerr := s.watcher.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// corsMiddleware answers preflights and sets the CORS headers. In
// development every origin is allowed; otherwise only configured ones.
func (s *PlaygroundServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *PlaygroundServer) originAllowed(origin string) bool {
	if !s.config.IsProduction() {
		return true
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// allowedOrigins lists the hosts the websocket endpoint accepts.
func (s *PlaygroundServer) allowedOrigins() []string {
	origins := []string{
		s.config.Address(),
		fmt.Sprintf("localhost:%d", s.config.Server.Port),
		fmt.Sprintf("127.0.0.1:%d", s.config.Server.Port),
	}
	for _, o := range s.config.Server.AllowedOrigins {
		origins = append(origins, strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://"))
	}
	return origins
}

func (s *PlaygroundServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", clientIP(r))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// writeJSON serializes a payload with the right content type.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
