package shortener

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultMaxURLLength is the longest url accepted by default
	DefaultMaxURLLength = 2048
)

// DefaultAllowedSchemes are the schemes accepted by default
var DefaultAllowedSchemes = []string{"http", "https"}

// Validator rejects urls that must never reach the indexes
type Validator interface {
	Validate(rawURL string) error
}

// URLValidator checks length, syntax and scheme
type URLValidator struct {
	maxLength int
	schemes   map[string]struct{}
}

// NewURLValidator creates a validator. Non-positive maxLength selects
// DefaultMaxURLLength and an empty scheme list selects DefaultAllowedSchemes.
func NewURLValidator(maxLength int, allowedSchemes []string) *URLValidator {
	if maxLength <= 0 {
		maxLength = DefaultMaxURLLength
	}
	if len(allowedSchemes) == 0 {
		allowedSchemes = DefaultAllowedSchemes
	}

	schemes := make(map[string]struct{}, len(allowedSchemes))
	for _, s := range allowedSchemes {
		schemes[strings.ToLower(s)] = struct{}{}
	}
	return &URLValidator{maxLength: maxLength, schemes: schemes}
}

// Validate returns an *InvalidURLError if rawURL is unacceptable
func (v *URLValidator) Validate(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return &InvalidURLError{Reason: "url must be non-empty"}
	}
	if len(rawURL) > v.maxLength {
		return &InvalidURLError{Reason: fmt.Sprintf("url exceeds maximum length of %d", v.maxLength)}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return &InvalidURLError{Reason: "malformed url", Err: err}
	}
	if _, ok := v.schemes[strings.ToLower(u.Scheme)]; !ok {
		return &InvalidURLError{Reason: fmt.Sprintf("unsupported url scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &InvalidURLError{Reason: "url has no host"}
	}
	return nil
}
