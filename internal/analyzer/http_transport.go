package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/platform/errs"
)

const (
	pageAuditTimeout = 60 * time.Second
	siteAuditTimeout = 10 * time.Minute
	maxRequestBody   = 1 << 20 // 1 MB
	maxSiteURLs      = 500
)

var (
	errURLRequired  = errors.New("the \"url\" field is required")
	errTooManyURLs  = errors.New("at most 500 \"urls\" may be audited per request")
	errTargetNeeded = errors.New("either \"domain\" or \"urls\" is required")
)

// Transport handles HTTP requests for page and site audits.
type Transport struct {
	service *Service
	logger  *slog.Logger
}

// NewTransport creates an HTTP transport backed by the given service.
func NewTransport(service *Service, logger *slog.Logger) *Transport {
	return &Transport{service: service, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /audit", t.handleAuditPage)
	mux.HandleFunc("POST /audit/site", t.handleAuditSite)
	mux.HandleFunc("GET /sites/{domain}", t.handleLatestSite)
}

type pageRequest struct {
	URL string `json:"url"`
}

func (r pageRequest) validate() error {
	if r.URL == "" {
		return errURLRequired
	}
	return nil
}

type siteRequest struct {
	Domain string   `json:"domain"`
	URLs   []string `json:"urls"`
}

func (r siteRequest) validate() error {
	if r.Domain == "" && len(r.URLs) == 0 {
		return errTargetNeeded
	}
	if len(r.URLs) > maxSiteURLs {
		return errTooManyURLs
	}
	return nil
}

func (t *Transport) handleAuditPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !t.decode(w, r, &req, "Invalid request body. Please send a JSON object with a \"url\" field.") {
		return
	}
	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pageAuditTimeout)
	defer cancel()

	result, err := t.service.AuditPage(ctx, req.URL)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleAuditSite(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if !t.decode(w, r, &req, "Invalid request body. Please send a JSON object with a \"domain\" or \"urls\" field.") {
		return
	}
	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), siteAuditTimeout)
	defer cancel()

	result, err := t.service.AuditSite(ctx, SiteRequest{Domain: req.Domain, URLs: req.URLs})
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleLatestSite(w http.ResponseWriter, r *http.Request) {
	result, err := t.service.LatestSite(r.Context(), r.PathValue("domain"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) decode(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		t.renderError(w, http.StatusBadRequest, message)
		return false
	}
	return true
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.NotFound:
			status = http.StatusNotFound
		case errs.Unreachable:
			status = http.StatusBadGateway
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		case errs.ParsingFailed, errs.Unknown:
			// 500 Internal Server Error
		}
		t.renderError(w, status, appErr.Message)
		return
	}

	t.logger.Error("unexpected service error", "error", err)
	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
