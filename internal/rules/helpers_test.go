package rules

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Bahjat/structured-web-auditor/internal/fetcher"
	"github.com/Bahjat/structured-web-auditor/internal/model"
)

var errProbeRefused = errors.New("connection refused")

// stubProber implements fetcher.Fetcher with a canned probe response.
type stubProber struct {
	elapsed time.Duration
	cookies []*http.Cookie
	err     error
	calls   int
}

func (s *stubProber) Fetch(_ context.Context, url string) (*fetcher.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &fetcher.Response{
		FinalURL:   url,
		StatusCode: http.StatusOK,
		Cookies:    s.cookies,
		Elapsed:    s.elapsed,
	}, nil
}

func sessionCookie() []*http.Cookie {
	return []*http.Cookie{{Name: "session", Value: "abc"}}
}

func assertInvariant(t interface{ Errorf(string, ...any) }, r Result) {
	if (r.Status == model.StatusFail) != (len(r.Violations) > 0) {
		t.Errorf("rule %s: status %s with %d violations", r.Rule, r.Status, len(r.Violations))
	}
}
