package domain

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestAPIError_Unwrap(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
	}
	for _, tc := range tests {
		err := NewAPIError(tc.status, "https://example.test/materials/core/", "boom")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: errors.Is(%v) = false", tc.status, tc.want)
		}
	}
}

func TestAPIError_UnknownStatus(t *testing.T) {
	err := NewAPIError(http.StatusTeapot, "u", "m")
	for _, s := range []error{ErrNotFound, ErrValidation, ErrServer} {
		if errors.Is(err, s) {
			t.Errorf("418 unexpectedly matches %v", s)
		}
	}
}

func TestAPIError_Message(t *testing.T) {
	err := NewAPIError(404, "https://api.test/materials/core/mp-1/", "Item not found")
	want := "REST query returned with error status code 404 on URL https://api.test/materials/core/mp-1/ with message:\nItem not found"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestValidationError(t *testing.T) {
	cause := errors.New("must be positive")
	err := &ValidationError{Field: "chunk_size", Err: cause}
	if !errors.Is(err, ErrValidation) {
		t.Error("expected ErrValidation")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if !strings.Contains(err.Error(), "chunk_size") {
		t.Errorf("message %q does not name the field", err.Error())
	}
}

func TestWrapValidation_Nil(t *testing.T) {
	if WrapValidation(nil) != nil {
		t.Fatal("expected nil")
	}
}
