package shortener

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ssargent/shortlinks/pkg/codec"
	"github.com/ssargent/shortlinks/pkg/store"
)

// IDAllocator hands out unique, increasing ids
type IDAllocator interface {
	Allocate() (uint64, error)
	Remaining() uint64
	Allocated() uint64
}

// ForwardStore maps ids to normalized urls
type ForwardStore interface {
	Put(id uint64, url string) error
	Get(id uint64) (string, bool)
	Stats() store.ForwardIndexStats
}

// ReverseStore maps normalized urls to ids, first writer wins
type ReverseStore interface {
	GetID(url string) (uint64, bool)
	PutIfAbsent(url string, id uint64) uint64
	Stats() store.ReverseIndexStats
}

// Config holds the sizing knobs for the default indexes
type Config struct {
	SegmentShift  int
	ReverseShards int
	// IDLimit is the largest id the default id space hands out. Zero means
	// no cap (ids up to store.MaxID), so a space holding only id 0 cannot be
	// configured here; inject an id space built with
	// store.NewIDSpaceWithLimit(0) through WithIDAllocator for that.
	IDLimit uint64
}

// Service shortens urls and resolves codes
type Service struct {
	ids        IDAllocator
	forward    ForwardStore
	reverse    ReverseStore
	codec      *codec.Codec
	validator  Validator
	normalizer Normalizer
	logger     *slog.Logger
	recorder   Recorder

	orphans atomic.Uint64
}

// Option customizes a Service
type Option func(*Service)

// WithIDAllocator replaces the default id space
func WithIDAllocator(a IDAllocator) Option {
	return func(s *Service) { s.ids = a }
}

// WithForwardStore replaces the default forward index
func WithForwardStore(f ForwardStore) Option {
	return func(s *Service) { s.forward = f }
}

// WithReverseStore replaces the default reverse index
func WithReverseStore(r ReverseStore) Option {
	return func(s *Service) { s.reverse = r }
}

// WithValidator replaces the default URLValidator
func WithValidator(v Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithNormalizer replaces the default IdentityNormalizer
func WithNormalizer(n Normalizer) Option {
	return func(s *Service) { s.normalizer = n }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// New creates a Service. Components not supplied through options are built
// from cfg.
func New(cfg Config, opts ...Option) (*Service, error) {
	s := &Service{
		codec:      codec.NewCodec(),
		validator:  NewURLValidator(DefaultMaxURLLength, DefaultAllowedSchemes),
		normalizer: IdentityNormalizer{},
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if s.ids == nil {
		if cfg.IDLimit == 0 {
			s.ids = store.NewIDSpace()
		} else {
			ids, err := store.NewIDSpaceWithLimit(cfg.IDLimit)
			if err != nil {
				return nil, fmt.Errorf("failed to create id space: %w", err)
			}
			s.ids = ids
		}
	}
	if s.forward == nil {
		fi, err := store.NewForwardIndex(store.ForwardIndexConfig{SegmentShift: cfg.SegmentShift})
		if err != nil {
			return nil, fmt.Errorf("failed to create forward index: %w", err)
		}
		s.forward = fi
	}
	if s.reverse == nil {
		s.reverse = store.NewReverseIndex(store.ReverseIndexConfig{Shards: cfg.ReverseShards})
	}

	return s, nil
}

// Shorten validates and normalizes rawURL, then returns its code.
//
// Errors match ErrInvalidURL when validation fails and
// store.ErrCapacityExceeded once the id space is exhausted.
func (s *Service) Shorten(rawURL string) (string, error) {
	start := time.Now()
	if err := s.validator.Validate(rawURL); err != nil {
		s.recorder.RecordShorten(OutcomeRejected, time.Since(start))
		return "", err
	}

	code, outcome, err := s.shorten(s.normalizer.Normalize(rawURL))
	s.recorder.RecordShorten(outcome, time.Since(start))
	return code, err
}

// ShortenNormalized returns the code for a url that has already been
// validated and normalized by the caller.
func (s *Service) ShortenNormalized(normalizedURL string) (string, error) {
	start := time.Now()
	code, outcome, err := s.shorten(normalizedURL)
	s.recorder.RecordShorten(outcome, time.Since(start))
	return code, err
}

func (s *Service) shorten(url string) (string, Outcome, error) {
	if id, ok := s.reverse.GetID(url); ok {
		code, err := s.encode(id)
		if err != nil {
			return "", OutcomeError, err
		}
		return code, OutcomeHit, nil
	}

	id, err := s.ids.Allocate()
	if err != nil {
		s.logger.Error("id allocation failed", "error", err)
		return "", OutcomeError, err
	}

	if err := s.forward.Put(id, url); err != nil {
		return "", OutcomeError, err
	}

	outcome := OutcomeCreated
	winner := s.reverse.PutIfAbsent(url, id)
	if winner != id {
		// id stays in the forward index as an orphan; nothing deletes it
		outcome = OutcomeRaceLost
		s.orphans.Add(1)
		s.logger.Debug("lost shorten race", "orphaned_id", id, "winner_id", winner)
	}

	code, err := s.encode(winner)
	if err != nil {
		return "", OutcomeError, err
	}
	return code, outcome, nil
}

func (s *Service) encode(id uint64) (string, error) {
	code, err := s.codec.Encode(id)
	if err != nil {
		return "", fmt.Errorf("%w: encode id %d: %w", store.ErrInvalidArgument, id, err)
	}
	return code, nil
}

// Resolve returns the url behind code. Malformed and unknown codes are both
// reported as not found.
func (s *Service) Resolve(code string) (string, bool) {
	start := time.Now()
	url, found := s.resolve(code)
	s.recorder.RecordResolve(found, time.Since(start))
	return url, found
}

func (s *Service) resolve(code string) (string, bool) {
	if !s.codec.IsValidCode(code) {
		return "", false
	}
	id, err := s.codec.Decode(code)
	if err != nil {
		return "", false
	}
	return s.forward.Get(id)
}

// Stats is a point-in-time snapshot of the engine. Counters are read
// independently and may be mutually inconsistent under load.
type Stats struct {
	Links      int                     `json:"links"`
	Allocated  uint64                  `json:"allocated"`
	Remaining  uint64                  `json:"remaining"`
	Orphaned   uint64                  `json:"orphaned"`
	Forward    store.ForwardIndexStats `json:"forward"`
	Reverse    store.ReverseIndexStats `json:"reverse"`
	CapturedAt time.Time               `json:"captured_at"`
}

// Stats returns engine statistics
func (s *Service) Stats() Stats {
	rev := s.reverse.Stats()
	return Stats{
		Links:      rev.TotalKeys,
		Allocated:  s.ids.Allocated(),
		Remaining:  s.ids.Remaining(),
		Orphaned:   s.orphans.Load(),
		Forward:    s.forward.Stats(),
		Reverse:    rev,
		CapturedAt: time.Now().UTC(),
	}
}

// Forward exposes the forward store, mainly for diagnostics
func (s *Service) Forward() ForwardStore {
	return s.forward
}

// Reverse exposes the reverse store, mainly for diagnostics
func (s *Service) Reverse() ReverseStore {
	return s.reverse
}
