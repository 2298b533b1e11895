package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/graphreveal/pkg/engine"
	"github.com/matzehuels/graphreveal/pkg/layout"
	"github.com/matzehuels/graphreveal/pkg/session"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8470"

// Options configures a Server.
type Options struct {
	// Logger receives request logs. Nil disables them.
	Logger *log.Logger

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	// Store enables the session routes.
	Store session.Store

	// DatasetPath and DatasetHash are recorded in saved sessions.
	DatasetPath string
	DatasetHash string

	// SettleRefresh is how long after a change a second frame is pushed so
	// clients see the released layout. Zero uses the default settle time.
	SettleRefresh time.Duration
}

// Server is the HTTP surface of one engine.
type Server struct {
	engine *engine.Engine
	hub    *Hub
	opts   Options
	router chi.Router
}

// New creates a server for eng.
func New(eng *engine.Engine, opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.SettleRefresh <= 0 {
		opts.SettleRefresh = layout.DefaultSettleDuration + 50*time.Millisecond
	}
	s := &Server{
		engine: eng,
		hub:    NewHub(opts.Logger),
		opts:   opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.opts.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/delta", s.handleDelta)
		r.Route("/events", func(r chi.Router) {
			r.Post("/hover", s.handleHover)
			r.Post("/hover-end", s.handleHoverEnd)
			r.Post("/modifiers", s.handleModifiers)
			r.Post("/dblclick", s.handleDoubleClick)
			r.Post("/drag-start", s.handleDragStart)
		})
		r.Post("/toggle", s.handleToggle)
		r.Post("/selection", s.handleSelection)
		r.Post("/reset", s.handleReset)
		if s.opts.Store != nil {
			r.Post("/sessions", s.handleSaveSession)
			r.Post("/sessions/{id}/restore", s.handleRestoreSession)
		}
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the frame broadcaster.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.opts.Logger != nil {
			s.opts.Logger.Info("listening", "addr", addr)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// publish pushes the current frame, and again once a pending settle
// has released the layout.
func (s *Server) publish() {
	frame := s.engine.Frame()
	s.hub.Broadcast(frame)
	if frame.Settling {
		time.AfterFunc(s.opts.SettleRefresh, func() {
			s.hub.Broadcast(s.engine.Frame())
		})
	}
}
