package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// BrowserClient uses browser-like headers to avoid 406 (Not Acceptable) errors
	// Used for sites that require browser-like User-Agent and headers
	BrowserClient ClientType = "browser"

	// CloudflareClient uses simple headers (like curl) to avoid 403 (Forbidden) errors
	// Used for Cloudflare-protected sites that block browser-like User-Agents
	CloudflareClient ClientType = "cloudflare"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	curlUserAgent    = "curl/8.7.1"
)

// ErrDisallowed is returned for URLs excluded by the site's robots.txt.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

// Config configures a rate-limited client.
type Config struct {
	ClientType ClientType
	// RequestsPerMinute caps the request rate. Zero or less means unlimited.
	RequestsPerMinute int
	Timeout           time.Duration
	// RespectRobots makes the client refuse URLs disallowed by robots.txt.
	RespectRobots bool
	Logger        zerolog.Logger
}

// HTTPClient wraps an http.Client with header presets and a token-bucket
// limiter. Every request, robots.txt lookups included, waits on the limiter.
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
	limiter    *rate.Limiter
	robots     *robotsGate
	logger     zerolog.Logger
}

// NewClient creates a new HTTP client with the specified type and no rate limit
func NewClient(clientType ClientType) *HTTPClient {
	return New(Config{ClientType: clientType})
}

// New creates a client from cfg.
func New(cfg Config) *HTTPClient {
	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Follow up to 10 redirects
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	c := &HTTPClient{
		client:     client,
		clientType: cfg.ClientType,
		limiter:    limiter,
		logger:     cfg.Logger.With().Str("component", "httpclient").Logger(),
	}
	if cfg.RespectRobots {
		c.robots = newRobotsGate(c)
	}
	return c
}

// UserAgent returns the User-Agent header sent by this client.
func (c *HTTPClient) UserAgent() string {
	switch c.clientType {
	case BrowserClient:
		return browserUserAgent
	case CloudflareClient:
		return curlUserAgent
	default:
		return "Go-http-client/1.1"
	}
}

// Do executes an HTTP request with the appropriate headers for the client type
// once the limiter admits it.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	c.setHeaders(req)
	return c.client.Do(req)
}

// Get is a convenience method for GET requests
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.robots != nil {
		if err := c.robots.check(ctx, req.URL); err != nil {
			return nil, err
		}
	}
	return c.Do(req)
}

// GetText fetches url and returns the status code and the body decoded to
// UTF-8. Non-2xx answers are returned as a *StatusError together with the
// status code.
func (c *HTTPClient) GetText(ctx context.Context, url string) (int, string, error) {
	start := time.Now()
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = resp.Body
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")
	return resp.StatusCode, string(body), nil
}

// setHeaders sets the appropriate headers based on client type
func (c *HTTPClient) setHeaders(req *http.Request) {
	switch c.clientType {
	case BrowserClient:
		// Browser-like headers to avoid 406 (Not Acceptable) errors
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Connection", "keep-alive")
		req.Header.Set("Upgrade-Insecure-Requests", "1")

	case CloudflareClient:
		// Cloudflare allows simple tools like curl but blocks browser-like User-Agents
		req.Header.Set("User-Agent", curlUserAgent)

	default:
		// Default: use Go's default User-Agent
	}
}
