package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
)

type apiResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *apiError   `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type apiError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"` // секунды
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classifyError(err)
	writeJSON(w, status, apiResponse{
		Success:   false,
		Error:     body,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func classifyError(err error) (int, *apiError) {
	var rateErr *domain.RateLimitError
	if errors.As(err, &rateErr) {
		return http.StatusTooManyRequests, &apiError{
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    "upstream rate limit exceeded, try again later",
			RetryAfter: int(rateErr.RetryAfter / time.Second),
		}
	}

	switch {
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway, &apiError{
			Code:    "UPSTREAM_UNAVAILABLE",
			Message: "search provider is unreachable",
		}
	case errors.Is(err, domain.ErrPodcastNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, &apiError{
			Code:    "NOT_FOUND",
			Message: err.Error(),
		}
	case errors.Is(err, domain.ErrEmptyTerm),
		errors.Is(err, domain.ErrInvalidLimit),
		errors.Is(err, domain.ErrInvalidOffset),
		errors.Is(err, domain.ErrInvalidSort):
		return http.StatusBadRequest, &apiError{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, &apiError{
			Code:    "INTERNAL_ERROR",
			Message: "an unexpected error occurred",
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
