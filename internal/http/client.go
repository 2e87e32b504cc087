package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultTimeout = 60 * time.Second

// DefaultUserAgent is sent when no WithUserAgent option is given.
const DefaultUserAgent = "catalog-downloader"

// Client performs single GET attempts against the catalog API and the
// image hosts.
//
// Client provides:
//   - Configured User-Agent header
//   - Per-attempt timeout handling
//   - 429 classification (ErrRateLimited) distinct from other failures
//   - Optional request pacing via a token bucket
//
// Client never retries; callers wrap it in a retry.Policy.
//
// Example usage:
//
//	client := NewClient(WithUserAgent("my-agent"))
//
//	var page dto.JSONPage
//	err := client.GetJSON(ctx, "https://api.jikan.moe/v4/top/anime?page=1", &page)
//
//	image, err := client.DownloadBytes(ctx, imageURL)
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-attempt timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
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

// WithRateLimit paces outgoing requests to rps requests per second with the
// given burst. A non-positive rps leaves requests unpaced.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient replaces the underlying *http.Client, e.g. with an
// httptest server's client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new HTTP client.
//
// Without options the client has a 60 second timeout, the
// "catalog-downloader" User-Agent and no pacing.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns:
//   - ErrRateLimited if the response status is 429
//   - *StatusError for any other status than 200 OK
//   - the transport or read error otherwise
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/image.jpg")
//	if errors.Is(err, http.ErrRateLimited) {
//	    // back off briefly
//	}
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// GetJSON performs a GET request and decodes the JSON body into v.
//
// Decode failures are returned wrapped; like transport errors they are
// transient from the caller's point of view.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// DownloadBytes downloads a file and returns the bytes in memory.
//
// Use this for small files like cover images; the bytes are only written to
// disk by the caller once the download fully succeeded.
//
// Example:
//
//	imageData, err := client.DownloadBytes(ctx, imageURL)
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url)
}
