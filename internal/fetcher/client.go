// Package fetcher retrieves audited pages over HTTP and measures each round trip.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxRedirects    = 5
	maxResponseBody = 10 << 20
	acceptHeader    = "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8"

	// DefaultUserAgent identifies the auditor to the sites it visits.
	DefaultUserAgent = "StructuredWebAuditor/1.0"
)

var (
	errTooManyRedirects = errors.New("fetcher: too many redirects")
	errBlockedRedirect  = errors.New("fetcher: redirect to non-http(s) scheme blocked")
)

// Response is one completed fetch.
type Response struct {
	Body       string
	FinalURL   string
	StatusCode int
	Cookies    []*http.Cookie
	Elapsed    time.Duration
}

// Fetcher retrieves a URL. Implementations must honor ctx and bound every
// request with a timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Options configures an HTTPClient.
type Options struct {
	Timeout              time.Duration
	UserAgent            string
	AllowPrivateNetworks bool
}

// HTTPClient implements Fetcher with a net/http client.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewHTTPClient returns a client with the given request timeout, a guarded
// dialer and redirect validation.
func NewHTTPClient(opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &HTTPClient{
		userAgent: opts.UserAgent,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext:         newDialer(opts.Timeout, opts.AllowPrivateNetworks).DialContext,
				MaxConnsPerHost:     10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: redirectPolicy,
		},
	}
}

func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// Fetch downloads the page and reports the post-redirect URL, the cookies
// the final response set and the wall time until the body was read.
func (c *HTTPClient) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptHeader)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	return &Response{
		Body:       string(body),
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Cookies:    resp.Cookies(),
		Elapsed:    elapsed,
	}, nil
}
