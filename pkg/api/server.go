// Package api exposes the shortener over HTTP.
//
// Routes:
//
//	POST /api/v1/shorten   {"long_url": "..."}    -> {"short_code", "short_url"}
//	POST /api/v1/resolve   {"short_code": "..."}  -> {"long_url"}
//	GET  /api/v1/health
//	GET  /api/v1/stats
//	GET  /metrics
//	GET  /{code}                                   -> 302 to the long url
//
// Everything under /api/v1 requires X-API-Key when ServerConfig.APIKey is set.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsInterval = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Routes builds the chi router for s. gatherer backs /metrics.
func (s *Server) Routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
		}

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Post("/shorten", s.metrics.InstrumentHandler("POST", "/api/v1/shorten", s.handleShorten))
		r.Post("/resolve", s.metrics.InstrumentHandler("POST", "/api/v1/resolve", s.handleResolve))
		r.Get("/stats", s.metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))
	})

	r.Get("/{code}", s.metrics.InstrumentHandler("GET", "/{code}", s.handleRedirect))

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, gatherer prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Routes(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.startMetricsUpdater(ctx, metricsInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting shortlinks server", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
