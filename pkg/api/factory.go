package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ssargent/shortlinks/pkg/config"
	"github.com/ssargent/shortlinks/pkg/shortener"
)

// DefaultServiceFactory is the default implementation of ServiceFactory
type DefaultServiceFactory struct{}

// NewServiceFactory creates a new service factory
func NewServiceFactory() ServiceFactory {
	return &DefaultServiceFactory{}
}

// CreateService creates a new shortener service with the given config
func (f *DefaultServiceFactory) CreateService(
	cfg *config.Config,
	logger *slog.Logger,
	recorder shortener.Recorder,
) (*shortener.Service, error) {
	normalizer, ok := shortener.NewNormalizer(cfg.Normalization)
	if !ok {
		return nil, fmt.Errorf("unknown normalization %q", cfg.Normalization)
	}

	opts := []shortener.Option{
		shortener.WithNormalizer(normalizer),
		shortener.WithValidator(shortener.NewURLValidator(cfg.Validation.MaxLength, cfg.Validation.AllowedSchemes)),
	}
	if logger != nil {
		opts = append(opts, shortener.WithLogger(logger))
	}
	if recorder != nil {
		opts = append(opts, shortener.WithRecorder(recorder))
	}

	return shortener.New(shortener.Config{
		SegmentShift:  cfg.Store.SegmentShift,
		ReverseShards: cfg.Store.ReverseShards,
		IDLimit:       cfg.Store.IDLimit,
	}, opts...)
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct {
	services ServiceFactory
}

// NewServerFactory creates a new server factory backed by services
func NewServerFactory(services ServiceFactory) ServerFactory {
	return &DefaultServerFactory{services: services}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{services: f.services}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	services ServiceFactory
}

// StartServer builds the metrics registry, the service and the HTTP server,
// then blocks until ctx is done
func (s *DefaultServerStarter) StartServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetrics(reg)

	svc, err := s.services.CreateService(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create shortener: %w", err)
	}

	server := NewServer(svc, ServerConfig{
		Addr:    cfg.Addr(),
		APIKey:  cfg.Security.APIKey,
		BaseURL: cfg.BaseURL,
	}, metrics, logger)

	return server.Run(ctx, reg)
}
