package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorTaxonomyStatuses(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
		code   string
	}{
		{Validation("bad input"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{BadRequest("expired ticket"), http.StatusBadRequest, "BAD_REQUEST"},
		{Unauthorized("no credential"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{Forbidden("wrong role"), http.StatusForbidden, "FORBIDDEN"},
		{NotFound("missing"), http.StatusNotFound, "NOT_FOUND"},
		{Conflict("duplicate email"), http.StatusConflict, "CONFLICT"},
	}

	for _, tt := range tests {
		if tt.err.Status != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.code, tt.err.Status, tt.status)
		}
		if tt.err.Code != tt.code {
			t.Errorf("code = %q, want %q", tt.err.Code, tt.code)
		}
	}
}

func TestErrorIs_MatchesByCode(t *testing.T) {
	sentinel := Unauthorized("Invalid Email or Password")
	wrapped := fmt.Errorf("login: %w", Wrap(sentinel, errors.New("db timeout")))

	if !errors.Is(wrapped, sentinel) {
		t.Fatal("wrapped operational error should match its sentinel by code")
	}
	if errors.Is(wrapped, NotFound("x")) {
		t.Fatal("different codes must not match")
	}
}

func TestFrom(t *testing.T) {
	op := NotFound("no such tour")
	wrapped := fmt.Errorf("get tour: %w", op)

	if got := From(wrapped); got == nil || got.Code != "NOT_FOUND" {
		t.Fatalf("From(wrapped) = %v, want the NOT_FOUND error", got)
	}
	if got := From(errors.New("disk on fire")); got != nil {
		t.Fatalf("From(plain error) = %v, want nil", got)
	}
}

func TestWrapPreservesIdentityAndCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	wrapped := Wrap(Conflict("email already registered"), cause)

	if wrapped.Status != http.StatusConflict || wrapped.Code != "CONFLICT" {
		t.Fatalf("wrap changed identity: %+v", wrapped)
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("wrapped cause should be reachable via errors.Is")
	}
}
