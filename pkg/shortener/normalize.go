package shortener

import (
	"net/url"
	"strings"
)

// Normalizer produces the canonical form of a url used as the reverse index key
type Normalizer interface {
	Normalize(rawURL string) string
}

// IdentityNormalizer leaves urls untouched
type IdentityNormalizer struct{}

// Normalize returns rawURL unchanged
func (IdentityNormalizer) Normalize(rawURL string) string {
	return rawURL
}

// CanonicalNormalizer lower-cases the scheme and host and gives urls with no
// path a "/" path, so http://Example.com and http://example.com/ share a code.
type CanonicalNormalizer struct{}

// Normalize returns the canonical form of rawURL, or rawURL itself if it
// does not parse
func (CanonicalNormalizer) Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}

// NewNormalizer returns the normalizer registered under name
func NewNormalizer(name string) (Normalizer, bool) {
	switch strings.ToLower(name) {
	case "", "identity", "none":
		return IdentityNormalizer{}, true
	case "canonical":
		return CanonicalNormalizer{}, true
	default:
		return nil, false
	}
}
