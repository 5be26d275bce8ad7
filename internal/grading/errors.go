package grading

import (
	"errors"
	"fmt"
)

// Boundary errors. The delivery engine inspects these to decide whether a
// failed submit is retryable: transport failures are, everything else is not.
var (
	// ErrDeadlineExceeded means the submission arrived after
	// startedAt + duration + grace. The attempt is not scored.
	ErrDeadlineExceeded = errors.New("submission arrived after the grading window closed")

	// ErrDuplicateSubmission means a different submission was already scored
	// for this (candidate, exam) pair. Identical replays do not produce it;
	// they return the stored result.
	ErrDuplicateSubmission = errors.New("attempt already scored")

	// ErrNotFound means the exam, attempt, or result does not exist.
	ErrNotFound = errors.New("not found")
)

// TransportError wraps a network or infrastructure failure during submit.
// The caller may retry with the same frozen submission.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("submit transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRetryable reports whether a submit failure may be retried without
// violating the at-most-one-result invariant.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
