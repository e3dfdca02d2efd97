package requestid

import (
	"context"
	"testing"
)

func TestContext(t *testing.T) {
	if got := FromContext(context.Background()); got != "" {
		t.Errorf("FromContext(empty) = %q, want empty", got)
	}

	ctx := NewContext(context.Background(), "req-42")
	if got := FromContext(ctx); got != "req-42" {
		t.Errorf("FromContext = %q, want req-42", got)
	}
}
