package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/shortlinks/pkg/shortener"
	"github.com/ssargent/shortlinks/pkg/store"
)

const maxRequestBody = 64 << 10

// Server holds the API server state
type Server struct {
	service IShortener
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server. A nil logger discards output.
func NewServer(service IShortener, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		service: service,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleShorten(w http.ResponseWriter, r *http.Request) {
	var req ShortenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	code, err := s.service.Shorten(req.LongURL)
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrInvalidURL):
			sendError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, store.ErrCapacityExceeded):
			s.logger.Error("shorten refused", "request_id", RequestID(r.Context()), "error", err)
			sendError(w, "Short code space exhausted", http.StatusServiceUnavailable)
		default:
			s.logger.Error("shorten failed", "request_id", RequestID(r.Context()), "error", err)
			sendError(w, "Failed to shorten url", http.StatusInternalServerError)
		}
		return
	}

	sendSuccess(w, ShortenResponse{
		ShortCode: code,
		ShortURL:  s.shortURL(r, code),
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	longURL, found := s.service.Resolve(req.ShortCode)
	if !found {
		sendError(w, "Short code not found", http.StatusNotFound)
		return
	}
	sendSuccess(w, ResolveResponse{LongURL: longURL})
}

// handleRedirect sends the client on to the url behind /{code}
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	longURL, found := s.service.Resolve(chi.URLParam(r, "code"))
	if !found {
		sendError(w, "Short code not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, longURL, http.StatusFound)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, s.service.Stats())
}

// shortURL joins the configured base url, or the request's own origin, with code
func (s *Server) shortURL(r *http.Request, code string) string {
	base := s.config.BaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimRight(base, "/") + "/" + code
}

// startMetricsUpdater periodically copies engine stats into the gauges
func (s *Server) startMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.metrics.UpdateEngineStats(s.service.Stats())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.UpdateEngineStats(s.service.Stats())
		}
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
