package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind tags the variant of an HTTPError.
type Kind int

const (
	// KindGeneric is any non-2xx status not covered by another kind
	KindGeneric Kind = iota
	// KindNotFound is a 404 response
	KindNotFound
	// KindServerError is a 5xx response
	KindServerError
	// KindRateLimited is a 403 or 429 response
	KindRateLimited
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindServerError:
		return "ServerError"
	case KindRateLimited:
		return "RateLimited"
	case KindGeneric:
		return "Generic"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is matching against HTTPError kinds and timeouts.
var (
	ErrHTTP        = errors.New("http: unexpected status")
	ErrNotFound    = errors.New("http: resource not found")
	ErrServerError = errors.New("http: server error")
	ErrRateLimited = errors.New("http: rate limited")
	ErrTimeout     = errors.New("http: transfer timed out")
)

// HTTPError is the single tagged variant for failed HTTP responses.
// RetryAfter is only ever set for KindRateLimited, and may still be nil
// when the server gave no usable hint.
type HTTPError struct {
	Kind       Kind
	StatusCode int
	URL        string
	RetryAfter *time.Time
}

func (e *HTTPError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("not found: %s", e.URL)
	case KindServerError:
		return fmt.Sprintf("server error %d: %s", e.StatusCode, e.URL)
	case KindRateLimited:
		if e.RetryAfter != nil {
			return fmt.Sprintf("rate limited (status %d): %s; retry after %s",
				e.StatusCode, e.URL, e.RetryAfter.UTC().Format(time.RFC3339))
		}
		return fmt.Sprintf("rate limited (status %d): %s", e.StatusCode, e.URL)
	default:
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.URL)
	}
}

// Is reports whether target is ErrHTTP or the sentinel for e.Kind.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrHTTP:
		return true
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrServerError:
		return e.Kind == KindServerError
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	}
	return false
}

// TimeoutError reports a transfer that exceeded its wall-clock budget.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("download %s: timed out after %s", e.URL, e.Timeout)
}

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Unwrap exposes context.DeadlineExceeded so generic deadline checks work.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}
