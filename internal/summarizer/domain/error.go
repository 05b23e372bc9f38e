package domain

import "errors"

var (
	// ErrTimeout marks a summarization that exhausted its deadline. It is
	// distinct from upstream failures so callers can answer 504, not 500.
	ErrTimeout = errors.New("summarization_timeout")

	ErrInvalidResponse = errors.New("invalid_summarization_response")
)
