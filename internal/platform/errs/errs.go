// Package errs classifies failures that cross a component boundary so the
// HTTP layer and the CLI can report them consistently.
package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind categorizes application errors for status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the caller supplied a malformed URL or domain (HTTP 400).
	InvalidInput
	// Unreachable indicates an audited site could not be reached (HTTP 502).
	Unreachable
	// Timeout indicates a page or site audit ran past its deadline (HTTP 504).
	Timeout
	// ParsingFailed indicates a sitemap, mesh file or page could not be parsed (HTTP 500).
	ParsingFailed
	// NotFound indicates no stored audit exists for the requested site (HTTP 404).
	NotFound
)

var kindNames = map[Kind]string{
	Unknown:       "unknown",
	InvalidInput:  "invalid_input",
	Unreachable:   "unreachable",
	Timeout:       "timeout",
	ParsingFailed: "parsing_failed",
	NotFound:      "not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by the audited site
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of the first AppError in err's chain, or Unknown.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}

// Network wraps a failed network operation, telling deadline expiry apart
// from every other failure.
func Network(message string, cause error) *AppError {
	kind := Unreachable
	var netErr net.Error
	if errors.Is(cause, context.DeadlineExceeded) || (errors.As(cause, &netErr) && netErr.Timeout()) {
		kind = Timeout
	}
	return &AppError{Kind: kind, Message: message, Cause: cause}
}
