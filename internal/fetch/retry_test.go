package fetch

import (
	"net/http"
	"testing"
	"time"
)

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	httpDate := time.Date(2026, 10, 16, 12, 5, 0, 0, time.UTC)

	tests := []struct {
		name    string
		headers map[string]string
		want    *time.Time
	}{
		{
			name:    "delay_seconds",
			headers: map[string]string{"Retry-After": "120"},
			want:    ptr(now.Add(120 * time.Second)),
		},
		{
			name:    "delay_seconds_with_whitespace",
			headers: map[string]string{"Retry-After": " 5 "},
			want:    ptr(now.Add(5 * time.Second)),
		},
		{
			name:    "zero_delay",
			headers: map[string]string{"Retry-After": "0"},
			want:    ptr(now),
		},
		{
			name:    "http_date",
			headers: map[string]string{"Retry-After": httpDate.Format(http.TimeFormat)},
			want:    ptr(httpDate),
		},
		{
			name:    "ratelimit_reset_epoch",
			headers: map[string]string{"X-RateLimit-Reset": "1792152000"},
			want:    ptr(time.Unix(1792152000, 0)),
		},
		{
			name: "retry_after_wins_over_reset",
			headers: map[string]string{
				"Retry-After":       "10",
				"X-RateLimit-Reset": "1792152000",
			},
			want: ptr(now.Add(10 * time.Second)),
		},
		{
			name: "malformed_retry_after_falls_through_to_reset",
			headers: map[string]string{
				"Retry-After":       "soon",
				"X-RateLimit-Reset": "1792152000",
			},
			want: ptr(time.Unix(1792152000, 0)),
		},
		{
			name:    "negative_delay_is_malformed",
			headers: map[string]string{"Retry-After": "-30"},
			want:    nil,
		},
		{
			name:    "malformed_reset",
			headers: map[string]string{"X-RateLimit-Reset": "tomorrow"},
			want:    nil,
		},
		{
			name:    "overflowing_delay",
			headers: map[string]string{"Retry-After": "99999999999999999"},
			want:    nil,
		},
		{
			name:    "no_headers",
			headers: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			got := RetryAfter(h, now)
			if tt.want == nil {
				if got != nil {
					t.Errorf("RetryAfter() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("RetryAfter() = nil, want %v", tt.want)
			}
			if !got.Equal(*tt.want) {
				t.Errorf("RetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindGeneric, "Generic"},
		{KindNotFound, "NotFound"},
		{KindServerError, "ServerError"},
		{KindRateLimited, "RateLimited"},
		{Kind(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
