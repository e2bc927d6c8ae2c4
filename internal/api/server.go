// Package api is the HTTP server for the courts service.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcus/courts/internal/serverdb"
	"github.com/microcosm-cc/bluemonday"
)

// limiterIdle is how long a client's write bucket survives without traffic
const limiterIdle = 10 * time.Minute

// Server serves the court directory over HTTP.
type Server struct {
	config  Config
	http    *http.Server
	store   *serverdb.ServerDB
	metrics *Metrics
	writes  *writeLimiter
	policy  *bluemonday.Policy
	stop    context.CancelFunc
	done    chan struct{}
}

// NewServer wires the router for cfg on top of store. The image directory is
// created if missing.
func NewServer(cfg Config, store *serverdb.ServerDB) (*Server, error) {
	if cfg.ImageDir != "" {
		if err := os.MkdirAll(cfg.ImageDir, 0755); err != nil {
			return nil, fmt.Errorf("create image dir: %w", err)
		}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10 << 20
	}

	s := &Server{
		config:  cfg,
		store:   store,
		metrics: NewMetrics(),
		writes:  newWriteLimiter(cfg.RateLimitWrite),
		policy:  bluemonday.StrictPolicy(),
	}
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Handler exposes the routed handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "err", err)
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	s.stop = stop
	s.done = make(chan struct{})
	go s.maintain(ctx)
	return nil
}

// maintain prunes idle rate limiter entries until ctx ends.
func (s *Server) maintain(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(limiterIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.writes.prune(limiterIdle); n > 0 {
				slog.Debug("pruned write limiter", "clients", n)
			}
		}
	}
}

// Shutdown stops maintenance and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stop != nil {
		s.stop()
		<-s.done
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		recoverPanics,
		withRequestContext,
		observe(s.metrics),
		limitBody(s.config.MaxBodyBytes),
		corsMiddleware(s.config.CORSAllowedOrigins),
		limitWrites(s.writes),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/metricz", s.handleMetrics)

	r.Get("/allbasketcourts", s.handleListCourts)
	r.Get("/file/{id}", s.handleGetCourt)
	r.Delete("/file/{id}", s.handleDeleteCourt)
	r.Post("/newcourt", s.handleSaveCourt)
	r.Post("/newcourtwithimage", s.handleSaveCourtWithImage)
	r.Post("/image", s.handleUploadImage)
	r.Get("/images/{name}", s.handleGetImage)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		logFor(r.Context()).Error("health: db ping", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "detail": "db unreachable"})
		return
	}
	n, err := s.store.CountCourts()
	if err != nil {
		logFor(r.Context()).Error("health: count courts", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "detail": "db unreadable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "courts": n})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
