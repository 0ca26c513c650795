// Package server exposes the treescope pipeline over HTTP.
//
// Clients post a document to /api/layout and get back the positioned graph
// together with a graph id. Later requests resolve paths against that graph
// or export it as an image without re-sending the document:
//
//	POST /api/layout                   build a graph from the request body
//	POST /api/resolve                  build and resolve in one call
//	GET  /api/graphs/{id}              the graph document
//	POST /api/graphs/{id}/resolve      resolve a path query
//	GET  /api/graphs/{id}/export       render as svg, png, dot or json
//	GET  /healthz                      liveness
//	GET  /metrics                      Prometheus metrics
//
// When started with a watched file, the graph id "current" always refers to
// the latest successful build of that file.
package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/treescope/pkg/config"
	"github.com/matzehuels/treescope/pkg/explorer"
	"github.com/matzehuels/treescope/pkg/pipeline"
	"github.com/matzehuels/treescope/pkg/viewport"
)

// CurrentGraphID names the watched document's latest graph.
const CurrentGraphID = "current"

const shutdownTimeout = 5 * time.Second

// Config holds the server dependencies.
type Config struct {
	Addr   string
	Runner *pipeline.Runner
	Logger *log.Logger

	// Base supplies layout settings and the input limit for every request.
	Base pipeline.Options

	// MaxGraphs bounds how many built graphs are kept for follow-up requests.
	MaxGraphs int

	// Watch, if set, is loaded at startup and rebuilt whenever it changes.
	Watch string

	// Gatherer backs /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
}

// Server is the treescope API server.
type Server struct {
	addr     string
	runner   *pipeline.Runner
	logger   *log.Logger
	base     pipeline.Options
	graphs   *registry
	watch    string
	session  *explorer.Session
	gatherer prometheus.Gatherer
	handler  http.Handler
}

// New creates a server. A nil runner builds without caching.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	runner := cfg.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultAddr
	}
	if cfg.MaxGraphs <= 0 {
		cfg.MaxGraphs = config.DefaultMaxGraphs
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		addr:     cfg.Addr,
		runner:   runner,
		logger:   logger,
		base:     cfg.Base,
		graphs:   newRegistry(cfg.MaxGraphs),
		watch:    cfg.Watch,
		gatherer: cfg.Gatherer,
	}
	if cfg.Watch != "" {
		s.session = explorer.New(runner, viewport.NewCamera(viewport.WithLogger(logger)),
			explorer.WithLogger(logger),
			explorer.WithPipelineOptions(cfg.Base),
		)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
		observe,
	)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/resolve", s.handleResolve)
		r.Route("/graphs/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGraph)
			r.Post("/resolve", s.handleGraphResolve)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	if s.session != nil {
		if err := s.session.LoadFile(egctx, s.watch); err != nil {
			s.logger.Warn("initial load failed", "file", s.watch, "error", err)
		}
		eg.Go(func() error {
			return s.session.Watch(egctx, s.watch, func(err error) {
				if err != nil {
					s.logger.Warn("reload failed, serving previous graph", "file", s.watch, "error", err)
				}
			})
		})
	}

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.logger.Info("listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
