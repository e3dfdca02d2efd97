package analyzer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/platform/errs"
)

func post(mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleAuditPage_Success(t *testing.T) {
	mux := newTestMux(NewService(&mockAuditor{}, mockSource{}, discardLogger))

	rec := post(mux, "/audit", `{"url": "example.com/about"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var result model.PageReport
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Result.URL != "https://example.com/about" {
		t.Errorf("URL = %q", result.Result.URL)
	}
	if result.Score != 100 {
		t.Errorf("Score = %d, want 100", result.Score)
	}
}

func TestHandleAuditPage_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty url", body: `{"url": ""}`},
		{name: "missing body", body: ""},
		{name: "malformed json", body: `{invalid json`},
		{name: "missing host", body: `{"url": "https://"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(NewService(&mockAuditor{}, mockSource{}, discardLogger))

			rec := post(mux, "/audit", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			var resp model.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error: %v", err)
			}
			if resp.StatusCode != http.StatusBadRequest || resp.Message == "" {
				t.Errorf("unexpected error body %+v", resp)
			}
		})
	}
}

func TestHandleAuditPage_WrongMethod(t *testing.T) {
	mux := newTestMux(NewService(&mockAuditor{}, mockSource{}, discardLogger))

	req := httptest.NewRequest(http.MethodGet, "/audit", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	// ServeMux returns 405 for method mismatch.
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleAuditSite(t *testing.T) {
	auditor := &mockAuditor{}
	source := mockSource{urls: []string{"https://example.com/", "https://example.com/verify.html"}}
	mux := newTestMux(NewService(auditor, source, discardLogger))

	rec := post(mux, "/audit/site", `{"domain": "example.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var result model.SiteReport
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Site.Domain != "example.com" || result.Site.TotalPages != 2 {
		t.Errorf("site = %+v", result.Site)
	}
	if len(result.Pages) != 2 {
		t.Errorf("pages = %d, want 2", len(result.Pages))
	}
}

func TestHandleAuditSite_BadRequests(t *testing.T) {
	tooMany := `{"urls": [` + strings.TrimSuffix(strings.Repeat(`"a.com",`, maxSiteURLs+1), ",") + `]}`

	tests := []struct {
		name string
		body string
	}{
		{name: "no target", body: `{}`},
		{name: "too many urls", body: tooMany},
		{name: "malformed json", body: `{"domain":`},
		{name: "invalid url", body: `{"urls": ["https://"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditor := &mockAuditor{}
			mux := newTestMux(NewService(auditor, mockSource{}, discardLogger))

			rec := post(mux, "/audit/site", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if len(auditor.siteCalls) != 0 {
				t.Errorf("auditor should not run, got %v", auditor.siteCalls)
			}
		})
	}
}

func TestHandleLatestSite(t *testing.T) {
	cache := mapCache{"example.com": {RunID: "cached", Site: model.SiteAuditResult{Domain: "example.com"}}}
	mux := newTestMux(NewService(&mockAuditor{}, mockSource{}, discardLogger, WithCache(cache)))

	req := httptest.NewRequest(http.MethodGet, "/sites/example.com", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var result model.SiteReport
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.RunID != "cached" {
		t.Errorf("RunID = %q, want cached", result.RunID)
	}
}

func TestHandleLatestSite_NotFound(t *testing.T) {
	mux := newTestMux(NewService(&mockAuditor{}, mockSource{}, discardLogger, WithHistory(&mockHistory{})))

	req := httptest.NewRequest(http.MethodGet, "/sites/unknown.example", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid input", err: &errs.AppError{Kind: errs.InvalidInput, Message: "bad"}, want: http.StatusBadRequest},
		{name: "not found", err: &errs.AppError{Kind: errs.NotFound, Message: "none"}, want: http.StatusNotFound},
		{name: "unreachable", err: &errs.AppError{Kind: errs.Unreachable, Message: "down"}, want: http.StatusBadGateway},
		{name: "timeout", err: &errs.AppError{Kind: errs.Timeout, Message: "slow"}, want: http.StatusGatewayTimeout},
		{name: "parsing", err: &errs.AppError{Kind: errs.ParsingFailed, Message: "broken"}, want: http.StatusInternalServerError},
		{name: "plain error", err: errDatabaseDown, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := NewTransport(nil, discardLogger)
			rec := httptest.NewRecorder()

			transport.handleServiceError(rec, tt.err)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
