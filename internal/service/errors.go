package service

import "errors"

// ErrRateLimited means the submitter exceeded the scheduling rate
// limit. Nothing was persisted or registered.
var ErrRateLimited = errors.New("too many requests")

// ValidationError rejects a submission before any side effect.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
