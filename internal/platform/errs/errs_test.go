package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

var errRefused = errors.New("connection refused")

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{name: "message only", err: &AppError{Message: "no sitemap"}, want: "no sitemap"},
		{name: "with cause", err: &AppError{Message: "Failed to fetch URL", Cause: errRefused}, want: "Failed to fetch URL: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("audit: %w", &AppError{Kind: NotFound, Message: "missing"})

	if got := KindOf(wrapped); got != NotFound {
		t.Errorf("KindOf(wrapped) = %v, want %v", got, NotFound)
	}
	if got := KindOf(errRefused); got != Unknown {
		t.Errorf("KindOf(plain) = %v, want %v", got, Unknown)
	}
}

func TestNetwork(t *testing.T) {
	timeout := Network("Failed to fetch URL", fmt.Errorf("get: %w", context.DeadlineExceeded))
	if timeout.Kind != Timeout {
		t.Errorf("deadline kind = %v, want %v", timeout.Kind, Timeout)
	}
	if !errors.Is(timeout, context.DeadlineExceeded) {
		t.Error("expected cause to unwrap to context.DeadlineExceeded")
	}

	refused := Network("Failed to fetch URL", errRefused)
	if refused.Kind != Unreachable {
		t.Errorf("refused kind = %v, want %v", refused.Kind, Unreachable)
	}
}

func TestKind_String(t *testing.T) {
	if got := Timeout.String(); got != "timeout" {
		t.Errorf("Timeout.String() = %q", got)
	}
	if got := Kind(42).String(); got != "kind(42)" {
		t.Errorf("Kind(42).String() = %q", got)
	}
}
