package devtools

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/statekit/internal/errors"
	"github.com/vango-dev/statekit/pkg/inject"
	"github.com/vango-dev/statekit/pkg/reactive"
)

// Options configures the devtools server.
type Options struct {
	// Addr is the listen address used by Start.
	Addr string

	// Registry is the registry to inspect. Required.
	Registry *inject.Registry

	// Tracker is the tracker to inspect. Optional.
	Tracker *reactive.Tracker

	// Hub streams registry events. Optional; without it /api/events and
	// /ws answer 404.
	Hub *Hub

	// Gatherer serves /metrics. Optional.
	Gatherer prometheus.Gatherer

	// Logger receives request and lifecycle logs. Default: slog.Default().
	Logger *slog.Logger
}

// Server is the devtools HTTP server.
type Server struct {
	opts       Options
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
	mu         sync.Mutex
	running    bool
}

// NewServer creates a devtools server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/registry", s.handleRegistry)
		r.Get("/tracker", s.handleTracker)
		if s.opts.Hub != nil {
			r.Get("/events", s.handleEvents)
		}
	})
	if s.opts.Hub != nil {
		r.Get("/ws", s.opts.Hub.HandleWebSocket)
	}
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler, for mounting or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on Options.Addr and serves until ctx is done or the server
// fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.New("E201").WithSubject(s.opts.Addr).Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or the server fails. It returns nil
// after a shutdown caused by ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.running = true
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	s.logger.Info("devtools listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		if err != nil {
			return errors.New("E201").WithSubject(ln.Addr().String()).Wrap(err)
		}
		return nil
	}
}

// Stop closes websocket clients and shuts the HTTP server down.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	if s.opts.Hub != nil {
		s.opts.Hub.Close()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("devtools shutdown", "error", err)
		}
	}
	s.logger.Info("devtools stopped")
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("devtools request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
