package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calfilter/internal/config"
	"calfilter/internal/ics"
	appLog "calfilter/internal/log"
)

// Fetcher retrieves a raw calendar document. *ics.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Server serves the filtered calendar at every path except /health and the
// metrics path.
type Server struct {
	cfg      *config.Config
	fetcher  Fetcher
	now      func() time.Time
	registry *prometheus.Registry
	metrics  *metrics
	router   *mux.Router
}

// Option customizes a Server.
type Option func(*Server)

// WithFetcher replaces the HTTP fetcher built from the config.
func WithFetcher(f Fetcher) Option {
	return func(s *Server) { s.fetcher = f }
}

// WithClock sets the clock used to anchor date windows.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer constructs a new Server. cfg is normalized in place and must not
// be mutated afterwards.
func NewServer(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Normalize()

	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		fetcher:  ics.NewFetcher(cfg.FetchTimeout()),
		now:      time.Now,
		registry: reg,
		metrics:  newMetrics(reg),
		router:   mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(requestID, s.accessLog, recovery, allowAnyOrigin)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	if s.cfg.MetricsEnabled() {
		s.router.Handle(s.cfg.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	// The path carries no meaning; the query selects feed, window and format.
	s.router.PathPrefix("/").HandlerFunc(s.handleCalendar).Methods(http.MethodGet, http.MethodHead)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ListenAndServe binds cfg.Listen and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully, waiting at most cfg.ShutdownTimeout for in-flight requests.
// The listener is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Leave room for a slow upstream fetch.
		WriteTimeout: s.cfg.FetchTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown did not complete", err)
		_ = srv.Close()
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}
