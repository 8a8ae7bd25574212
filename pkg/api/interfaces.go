package api

import (
	"context"
	"log/slog"

	"github.com/ssargent/shortlinks/pkg/config"
	"github.com/ssargent/shortlinks/pkg/shortener"
)

// ServiceFactory builds shortener services from configuration
type ServiceFactory interface {
	// CreateService wires a service sized and validated per cfg. A nil
	// recorder disables metrics.
	CreateService(cfg *config.Config, logger *slog.Logger, recorder shortener.Recorder) (*shortener.Service, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled
	StartServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
