package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorWrapping(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	appErr := NewConnectionError("mysql(verify@db1:3306/app)", cause)

	if !errors.Is(appErr, cause) {
		t.Error("AppError should unwrap to its cause")
	}

	wrapped := fmt.Errorf("run failed: %w", appErr)
	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("AsAppError should find a wrapped AppError")
	}
	if got.Code != ErrCodeConnectionFailed {
		t.Errorf("expected code %s, got %s", ErrCodeConnectionFailed, got.Code)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		err      *AppError
		expected int
	}{
		{NewConnectionError("x", nil), http.StatusServiceUnavailable},
		{NewQueryError("x", nil), http.StatusInternalServerError},
		{NewTimeoutError("x", nil), http.StatusRequestTimeout},
		{NewPoolExhaustedError("x"), http.StatusTooManyRequests},
		{NewValidationError("x", nil), http.StatusUnprocessableEntity},
	}

	for _, c := range cases {
		if c.err.StatusCode() != c.expected {
			t.Errorf("code %s: expected status %d, got %d", c.err.Code, c.expected, c.err.StatusCode())
		}
	}
}

func TestIsTimeoutMatchesDeadlineExceeded(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("context.DeadlineExceeded should count as a timeout")
	}
	if !IsTimeout(NewTimeoutError("query", context.DeadlineExceeded)) {
		t.Error("timeout app errors should count as timeouts")
	}
	if IsTimeout(NewQueryError("x", nil)) {
		t.Error("query errors are not timeouts")
	}
}

func TestErrorKindPredicates(t *testing.T) {
	if !IsConnectionError(NewConnectionError("x", nil)) {
		t.Error("IsConnectionError should match connection errors")
	}
	if IsConnectionError(NewQueryError("x", nil)) {
		t.Error("IsConnectionError should not match query errors")
	}
	if !IsPoolExhausted(NewPoolExhaustedError("x")) {
		t.Error("IsPoolExhausted should match pool exhaustion")
	}
	if IsPoolExhausted(nil) {
		t.Error("nil is not an error kind")
	}
}
