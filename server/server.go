// Package server exposes the pitching dashboard over HTTP.
//
// Every request runs one independent pass over the loaded table; the
// table is read-only, so handlers share it without locking.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spektr-org/pitchboard/config"
	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
	"github.com/spektr-org/pitchboard/logger"
)

// Server serves one loaded table.
type Server struct {
	table     *engine.Table
	cfg       config.ServerConfig
	delimiter rune
	options   []engine.Option
	router    chi.Router
}

// New builds a server for table using cfg.
func New(table *engine.Table, cfg config.Config) (*Server, error) {
	if table == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "server needs a loaded table")
	}
	delim, err := cfg.Data.DelimiterRune()
	if err != nil {
		return nil, err
	}

	s := &Server{
		table:     table,
		cfg:       cfg.Server,
		delimiter: delim,
		options:   dashboardOptions(cfg.Dashboard),
	}
	s.router = s.routes()
	return s, nil
}

func dashboardOptions(d config.DashboardConfig) []engine.Option {
	var opts []engine.Option
	if d.Title != "" {
		opts = append(opts, engine.WithTitle(d.Title))
	}
	if len(d.Palette) > 0 {
		opts = append(opts, engine.WithPalette(d.Palette))
	}
	if len(d.Panels) > 0 {
		opts = append(opts, engine.WithPanels(d.Panels...))
	}
	return opts
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/charts/{panel}.svg", s.handleChartSVG)
	r.Get("/export.csv", s.handleExport)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/filters", s.handleFilters)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/records", s.handleRecords)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/charts/{panel}", s.handleChart)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, errors.New(errors.ErrorTypeNotFound, "no such route").WithDetail("path", r.URL.Path))
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("pitchboard listening",
			zap.String("addr", s.cfg.Addr),
			zap.String("source", s.table.Source()),
			zap.Int("rows", s.table.Len()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(err, errors.ErrorTypeInternal, "server stopped")
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "graceful shutdown failed")
	}
	return nil
}
