package shortener

import (
	"errors"
	"fmt"
)

// ErrInvalidURL is matched by every validation failure
var ErrInvalidURL = errors.New("invalid url")

// InvalidURLError describes why a url was rejected
type InvalidURLError struct {
	Reason string
	Err    error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid url: %s: %v", e.Reason, e.Err)
	}
	return "invalid url: " + e.Reason
}

// Is reports a match against ErrInvalidURL
func (e *InvalidURLError) Is(target error) bool {
	return target == ErrInvalidURL
}

func (e *InvalidURLError) Unwrap() error {
	return e.Err
}
