package api

import (
	"github.com/ssargent/shortlinks/pkg/shortener"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ShortenRequest is the body of POST /api/v1/shorten
type ShortenRequest struct {
	LongURL string `json:"long_url"`
}

// ShortenResponse is returned by POST /api/v1/shorten
type ShortenResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

// ResolveRequest is the body of POST /api/v1/resolve
type ResolveRequest struct {
	ShortCode string `json:"short_code"`
}

// ResolveResponse is returned by POST /api/v1/resolve
type ResolveResponse struct {
	LongURL string `json:"long_url"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Addr string
	// APIKey guards /api/v1 when non-empty
	APIKey string
	// BaseURL prefixes returned short urls. When empty the request host is used.
	BaseURL string
}

// IShortener defines the engine operations the API needs
type IShortener interface {
	Shorten(rawURL string) (string, error)
	Resolve(code string) (string, bool)
	Stats() shortener.Stats
}
