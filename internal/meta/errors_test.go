package meta

import (
	"fmt"
	"strings"
	"testing"
)

func TestGraphError_IsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  GraphError
		want bool
	}{
		{"app limit", GraphError{Code: ErrCodeTooManyCalls}, true},
		{"user limit", GraphError{Code: ErrCodeUserTooManyCalls}, true},
		{"ad account limit", GraphError{Code: ErrCodeAdAccountRateLimit}, true},
		{"http 429", GraphError{Code: 0, HTTPStatus: 429}, true},
		{"permission error", GraphError{Code: ErrCodePermission}, false},
		{"invalid token", GraphError{Code: ErrCodeInvalidToken}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRateLimited(); got != tt.want {
				t.Errorf("IsRateLimited() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGraphError_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  GraphError
		want bool
	}{
		{"rate limit", GraphError{Code: ErrCodeUserTooManyCalls, HTTPStatus: 400}, true},
		{"server error", GraphError{Code: 2, HTTPStatus: 500}, true},
		{"bad request", GraphError{Code: 100, HTTPStatus: 400}, false},
		{"auth error", GraphError{Code: ErrCodeInvalidToken, HTTPStatus: 401}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAsGraphError(t *testing.T) {
	ge := &GraphError{Code: 190, Type: "OAuthException", Message: "token expired"}
	wrapped := fmt.Errorf("failed to list campaigns: %w", ge)

	got, ok := AsGraphError(wrapped)
	if !ok {
		t.Fatal("AsGraphError() should unwrap GraphError")
	}
	if got.Code != 190 {
		t.Errorf("unexpected code %d", got.Code)
	}

	if !IsAuthError(wrapped) {
		t.Error("IsAuthError() should be true for code 190")
	}
	if IsRateLimited(wrapped) {
		t.Error("IsRateLimited() should be false for code 190")
	}

	if _, ok := AsGraphError(fmt.Errorf("plain error")); ok {
		t.Error("AsGraphError() should not match plain errors")
	}
}

func TestGraphError_ErrorString(t *testing.T) {
	ge := &GraphError{
		Message:      "User request limit reached",
		Type:         "OAuthException",
		Code:         17,
		ErrorSubcode: 2446079,
		FBTraceID:    "AxYz",
	}

	msg := ge.Error()
	for _, want := range []string{"17", "2446079", "OAuthException", "AxYz"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}
