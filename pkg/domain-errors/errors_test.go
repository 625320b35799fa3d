package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	t.Run("coded error", func(t *testing.T) {
		err := New(CodeUnauthorized, "token expired")
		if CodeOf(err) != CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %q", CodeOf(err))
		}
	})

	t.Run("plain error defaults to internal", func(t *testing.T) {
		if CodeOf(errors.New("boom")) != CodeInternal {
			t.Fatalf("expected internal for uncoded errors")
		}
	})

	t.Run("wrapped through fmt", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeRateLimited, "slow down"))
		if CodeOf(err) != CodeRateLimited {
			t.Fatalf("expected rate_limited through wrapping, got %q", CodeOf(err))
		}
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "append audit event")

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to remain reachable")
	}
	if !Is(err, CodeInternal) {
		t.Fatalf("expected internal code")
	}
	if Wrap(nil, CodeInternal, "noop") != nil {
		t.Fatalf("wrapping nil must return nil")
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(New(CodeBadRequest, "invalid input")); got != "invalid input" {
		t.Fatalf("expected message for non-internal code, got %q", got)
	}
	if got := MessageOf(New(CodeInternal, "db failed")); got != "" {
		t.Fatalf("internal message must not leak, got %q", got)
	}
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput: http.StatusBadRequest,
		CodeBadRequest:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeRateLimited:  http.StatusTooManyRequests,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Fatalf("code %q: expected %d, got %d", code, want, got)
		}
	}
}
