package sportsbook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alejandrodnm/betsync/internal/ports"
	"golang.org/x/time/rate"
)

const (
	defaultBase     = "https://api.sportsfeed.example.com"
	defaultRate     = 5 // requests per second
	defaultBurst    = 5
	defaultTimeout  = 10 * time.Second
	maxErrorBodyLen = 512
)

// ErrRateLimited is returned (wrapped) when the feed answers 429. The client
// never retries; the caller decides what to do with its cycle.
var ErrRateLimited = ports.ErrRateLimited

// Client is the HTTP client of the sportsbook data feed. Every request waits on
// the limiter and is made exactly once under the client timeout.
type Client struct {
	http    *http.Client
	base    string
	apiKey  string
	limiter *rate.Limiter
	now     func() time.Time
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL       string
	APIKey        string
	RatePerSecond float64
	Timeout       time.Duration
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBase
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = defaultRate
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		base:    opts.BaseURL,
		apiKey:  opts.APIKey,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), defaultBurst),
		now:     time.Now,
	}
}

// get makes one rate-limited GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("GET %s: %w", path, ErrRateLimited)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", path, err)
	}
	return nil
}
