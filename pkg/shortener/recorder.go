package shortener

import "time"

// Outcome labels how a shorten call finished
type Outcome string

const (
	OutcomeHit      Outcome = "hit"
	OutcomeCreated  Outcome = "created"
	OutcomeRaceLost Outcome = "race_lost"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "error"
)

// Recorder receives per-call measurements, typically for metrics
type Recorder interface {
	RecordShorten(outcome Outcome, duration time.Duration)
	RecordResolve(found bool, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordShorten(Outcome, time.Duration) {}
func (nopRecorder) RecordResolve(bool, time.Duration)    {}
