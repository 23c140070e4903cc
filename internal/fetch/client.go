package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout is the wall-clock budget for one whole transfer
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "egetbox/1.0"
	// maxRedirects bounds GitHub's release-asset redirect chain
	maxRedirects = 10
	// partSuffix marks an in-flight download next to its destination
	partSuffix = ".part"
)

// Client performs single-attempt streamed downloads. It never retries;
// retry policy belongs to the caller.
type Client struct {
	client    *http.Client
	userAgent string
	clock     Clock
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithClock replaces the clock used for Retry-After math.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a new download client
func NewClient(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			// No client-level Timeout: the budget is applied per transfer
			// through the request context.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		clock:     RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DownloadFile streams url into destPath. onProgress may be nil. A
// non-positive timeout means DefaultTimeout.
//
// Failures are *HTTPError for non-2xx responses, *TimeoutError when the
// budget runs out, or a wrapped transport/filesystem error. After any
// failure destPath does not exist.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress ProgressFunc, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transferCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := c.download(transferCtx, url, destPath, onProgress)
	if err == nil {
		return nil
	}

	// A failed transfer leaves no file at destPath, not even one from an
	// earlier download.
	_ = os.Remove(destPath)

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	// Only our own budget counts as a timeout; a caller's cancellation
	// stays a plain context error.
	if errors.Is(transferCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return &TimeoutError{URL: url, Timeout: timeout}
	}

	return err
}

// download performs a single download attempt
func (c *Client) download(ctx context.Context, url, destPath string, onProgress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(url, resp, c.clock.Now()); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	partPath := destPath + partSuffix
	partFile, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("create part file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		partFile.Close()
		if cleanupNeeded {
			os.Remove(partPath)
		}
	}()

	// resp.ContentLength is already -1 when the server sent no usable length.
	pw := &progressWriter{
		w:          partFile,
		url:        url,
		total:      resp.ContentLength,
		onProgress: onProgress,
	}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := partFile.Close(); err != nil {
		return fmt.Errorf("close part file: %w", err)
	}

	if err := os.Rename(partPath, destPath); err != nil {
		return fmt.Errorf("rename part file: %w", err)
	}

	cleanupNeeded = false
	return nil
}
