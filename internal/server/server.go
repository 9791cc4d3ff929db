// Package server exposes the analysis of a project over HTTP.
//
// The server runs the engine once at startup (and again after every change
// when watching) and answers requests from the latest successful report.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/butter/internal/engine"
	"golang.org/x/sync/errgroup"
)

// ErrNotReady is returned while no run has succeeded yet.
var ErrNotReady = errors.New("analysis not available")

// MaxRequestBytes bounds the body of POST /analyze.
const MaxRequestBytes = 1 << 20

// Server serves the analysis of one project.
type Server struct {
	engine   *engine.Engine
	addr     string
	watch    bool
	logger   *slog.Logger
	notifier *Notifier

	mu      sync.RWMutex
	report  *engine.Report
	lastErr error
}

// Config holds configuration for the server.
type Config struct {
	Engine *engine.Engine
	Addr   string
	// Watch re-runs the analysis when project files change.
	Watch  bool
	Logger *slog.Logger
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		engine:   cfg.Engine,
		addr:     cfg.Addr,
		watch:    cfg.Watch,
		logger:   logger,
		notifier: NewNotifier(),
	}
}

// Notifier returns the notifier pinged after every run.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// Load runs the analysis once and records the outcome.
func (s *Server) Load(ctx context.Context) error {
	report, err := s.engine.Run(ctx)
	s.update(report, err)
	return err
}

// update records a run. A failed run keeps the previous report so clients
// keep getting answers while the project is being edited.
func (s *Server) update(report *engine.Report, err error) {
	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.report = report
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("analysis failed", "error", err)
	} else {
		s.logger.Info("analysis reloaded", "run_id", report.RunID, "files", len(report.Files))
	}
	s.notifier.Broadcast()
}

// Current returns the latest successful report and the error of the most
// recent run, if any.
func (s *Server) Current() (*engine.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report, s.lastErr
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)
	s.routes(r)
	return r
}

// Serve analyzes the project, starts the HTTP server and blocks until ctx
// is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, egctx := errgroup.WithContext(ctx)

	if s.watch {
		eg.Go(func() error {
			return s.engine.Watch(egctx, s.update)
		})
	} else if err := s.Load(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		// Stop the watcher before returning.
		cancel()
		_ = eg.Wait()
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.logger.Info("starting server", "addr", ln.Addr().String(), "watch", s.watch)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds())
	})
}
