package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

var (
	ErrRateLimited         = errors.New("upstream rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

var (
	ErrEmptyTerm     = errors.New("search term is required")
	ErrInvalidLimit  = errors.New("limit must be between 1 and 200")
	ErrInvalidOffset = errors.New("offset must be non-negative")
	ErrInvalidSort   = errors.New("invalid sort field")
)

var (
	ErrPodcastNotFound = errors.New("podcast not found")
	ErrJobNotFound     = errors.New("job not found")
)

// RateLimitError - финальный отказ после исчерпания retry с backoff.
// RetryAfter - подсказка, когда имеет смысл повторить.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("upstream rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
