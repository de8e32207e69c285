package community

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultBaseURL           = "https://steamcommunity.com"
	DefaultRequestsPerSecond = 1.0
	DefaultTimeout           = 30 * time.Second
)

// maxPageBytes bounds how much of a response body is parsed.
const maxPageBytes = 4 << 20

// errRateLimited is returned for a 429 response.
var errRateLimited = errors.New("rate limited")

// Config configures the community client.
type Config struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client performs cookie-authenticated page fetches.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *RateLimiter
}

// NewClient creates a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		limiter: NewRateLimiter(cfg.RequestsPerSecond, 1),
	}
}

// cookieHeader builds the Cookie value for creds. The machine auth cookie is
// sent both as the parental cookie and under the identity-suffixed name.
func cookieHeader(creds domain.SessionCredentials) string {
	parts := []string{
		"sessionid=" + creds.SessionID,
		"steamLoginSecure=" + creds.LoginSecure,
	}
	if creds.MachineAuth != "" {
		parts = append(parts,
			"steamparental="+creds.MachineAuth,
			"steamMachineAuth"+creds.Identity+"="+creds.MachineAuth,
		)
	}
	return strings.Join(parts, "; ")
}

// fetch GETs path and parses the body as HTML. Transport failures, 429
// and 5xx responses wrap domain.ErrValidatorUnavailable.
func (c *Client) fetch(ctx context.Context, path string, creds domain.SessionCredentials) (*html.Node, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Cookie", cookieHeader(creds))
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrValidatorUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.limiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
		return nil, fmt.Errorf("%w: %w", domain.ErrValidatorUnavailable, errRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrValidatorUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("fetching %s: HTTP %d", path, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
