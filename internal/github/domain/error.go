package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidURL     = errors.New("invalid_github_url")
	ErrRepoNotFound   = errors.New("repository_not_found")
	ErrReadmeNotFound = errors.New("repository_or_readme_not_found")
	ErrUpstream       = errors.New("github_upstream_error")
)

// RateLimitError reports an upstream GitHub rate limit with a human retry
// hint derived from the X-RateLimit-Reset header.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	minutes := int64(1)
	if !e.ResetAt.IsZero() {
		remaining := time.Until(e.ResetAt)
		minutes = int64((remaining + time.Minute - 1) / time.Minute)
		if minutes < 1 {
			minutes = 1
		}
	}
	if minutes == 1 {
		return "GitHub API rate limit exceeded. Try again in 1 minute."
	}
	return fmt.Sprintf("GitHub API rate limit exceeded. Try again in %d minutes.", minutes)
}

// IsRateLimit reports whether err carries an upstream rate limit.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
