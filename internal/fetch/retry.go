package fetch

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	headerRetryAfter     = "Retry-After"
	headerRateLimitReset = "X-RateLimit-Reset"
)

// maxDelaySeconds keeps now+delay inside time.Duration range.
const maxDelaySeconds = math.MaxInt64 / int64(time.Second)

// RetryAfter computes the instant after which a rate-limited request may be
// retried. It returns nil when no header yields a usable value.
func RetryAfter(h http.Header, now time.Time) *time.Time {
	if v := strings.TrimSpace(h.Get(headerRetryAfter)); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			if secs >= 0 && secs <= maxDelaySeconds {
				t := now.Add(time.Duration(secs) * time.Second)
				return &t
			}
		} else if t, err := http.ParseTime(v); err == nil {
			return &t
		}
	}

	if v := strings.TrimSpace(h.Get(headerRateLimitReset)); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil && epoch >= 0 {
			t := time.Unix(epoch, 0)
			return &t
		}
	}

	return nil
}

// classifyStatus maps a response to its HTTPError, or nil for 2xx.
func classifyStatus(url string, resp *http.Response, now time.Time) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return &HTTPError{Kind: KindNotFound, StatusCode: code, URL: url}
	case code == http.StatusForbidden || code == http.StatusTooManyRequests:
		return &HTTPError{
			Kind:       KindRateLimited,
			StatusCode: code,
			URL:        url,
			RetryAfter: RetryAfter(resp.Header, now),
		}
	case code >= 500 && code <= 599:
		return &HTTPError{Kind: KindServerError, StatusCode: code, URL: url}
	default:
		return &HTTPError{Kind: KindGeneric, StatusCode: code, URL: url}
	}
}
