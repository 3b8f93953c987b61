// Package web fetches remote imagery over plain HTTP(S).
package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
)

// Client implements interfaces.AssetFetcher
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a fetcher with a 30 second timeout
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "oamfetch/" + types.Version,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch streams the body of url into w. Non-2xx responses are errors; 5xx and
// 429 are tagged transient, other statuses permanent.
func (c *Client) Fetch(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create request", goerr.V("url", url), goerr.T(types.ErrTagPermanent))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to send request", goerr.V("url", url), ClassifyError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, goerr.New("unexpected status code",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			ClassifyStatus(resp.StatusCode))
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, goerr.Wrap(err, "failed to read response body",
			goerr.V("url", url),
			goerr.V("bytes", n),
			goerr.T(types.ErrTagTransient))
	}
	return n, nil
}

// ClassifyStatus tags an HTTP status as transient (5xx, 429) or permanent
func ClassifyStatus(code int) goerr.Option {
	if code == http.StatusTooManyRequests || code >= 500 {
		return goerr.T(types.ErrTagTransient)
	}
	return goerr.T(types.ErrTagPermanent)
}

// ClassifyError tags a transport error. Cancellation by the caller is
// permanent so that retry loops stop; everything else is transient.
func ClassifyError(err error) goerr.Option {
	if errors.Is(err, context.Canceled) {
		return goerr.T(types.ErrTagPermanent)
	}
	return goerr.T(types.ErrTagTransient)
}
