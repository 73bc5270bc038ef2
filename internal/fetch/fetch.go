// Package fetch downloads raw image bytes over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds a single fetch, connection and body included.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodyBytes caps the size of a downloaded image.
	DefaultMaxBodyBytes = 20 << 20
	// DefaultUserAgent keeps naive bot filters from rejecting requests.
	DefaultUserAgent = "Mozilla/5.0 (compatible; image-compare)"

	defaultRetryBackoff = 500 * time.Millisecond
)

// Fetcher retrieves the body of an image URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	// Retries is the number of extra attempts after a network error or 5xx.
	// Timeouts and 4xx responses are never retried.
	Retries      int
	RetryBackoff time.Duration
}

// Client is an HTTP Fetcher with a per-request timeout.
type Client struct {
	http *http.Client
	opts Options
	log  logrus.FieldLogger
}

// NewClient creates a Client. The underlying transport is shared by all
// fetches made through it.
func NewClient(opts Options, log logrus.FieldLogger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (limit: 5)")
				}
				return nil
			},
		},
		opts: opts,
		log:  log,
	}
}

// Timeout returns the per-fetch timeout.
func (c *Client) Timeout() time.Duration {
	return c.opts.Timeout
}

// Fetch downloads url and returns the full body.
// Each attempt gets its own timeout; when it expires the request is cancelled.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		data, err := c.fetchOnce(ctx, url)
		if err == nil {
			c.log.WithFields(logrus.Fields{
				"url":      url,
				"bytes":    len(data),
				"attempt":  attempt + 1,
				"duration": time.Since(start),
			}).Debug("Fetched image")
			return data, nil
		}

		if attempt >= c.opts.Retries || !retryable(err) || ctx.Err() != nil {
			return nil, err
		}

		wait := time.Duration(attempt+1) * c.opts.RetryBackoff
		c.log.WithError(err).WithFields(logrus.Fields{
			"url":     url,
			"attempt": attempt + 1,
			"wait":    wait,
		}).Warn("Image fetch failed, retrying")

		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(wait):
		}
	}
}

func (c *Client) fetchOnce(parent context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parent, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("invalid URL: %w", err)}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/jpeg,image/*;q=0.8,*/*;q=0.5")

	resp, err := c.http.Do(req) //nolint:gosec // fetching caller-supplied image URLs is the purpose of this client
	if err != nil {
		return nil, c.classify(parent, ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{URL: url, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, c.classify(parent, ctx, url, err)
	}
	if int64(len(data)) > c.opts.MaxBodyBytes {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("response body exceeds %d bytes", c.opts.MaxBodyBytes)}
	}
	return data, nil
}

// classify maps a transport error to TimeoutError or NetworkError. A done
// parent context (caller deadline or cancellation) is never reported as the
// per-fetch timeout.
func (c *Client) classify(parent, ctx context.Context, url string, err error) error {
	if parent.Err() != nil {
		return &NetworkError{URL: url, Err: fmt.Errorf("request aborted by caller: %w", context.Cause(parent))}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: url, Timeout: c.opts.Timeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: url, Timeout: c.opts.Timeout, Err: err}
	}
	return &NetworkError{URL: url, Err: err}
}

func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
