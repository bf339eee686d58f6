package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"document-delivery/internal/apperror"
)

func TestWriteServiceError_KindToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"not found", apperror.NotFound("order not found", nil), http.StatusNotFound, "order not found"},
		{"validation", apperror.Validation("copies must be at least 1", nil), http.StatusBadRequest, "copies must be at least 1"},
		{"conflict", apperror.Conflict("express pricing unavailable", nil), http.StatusConflict, "express pricing unavailable"},
		{"unavailable", apperror.Unavailable("tariff config unavailable", errors.New("conn refused")), http.StatusServiceUnavailable, "tariff config unavailable"},
		{"invalid config", apperror.InvalidConfig("rounding must be positive", nil), http.StatusInternalServerError, "Failed to quote"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Failed to quote"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeServiceError(rr, newTestLogger(), tc.err, "Failed to quote")

			if rr.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rr.Code)
			}
			var body ErrorResponse
			decodeBody(t, rr, &body)
			if body.Message != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, body.Message)
			}
		})
	}
}

func TestWriteServiceError_NilLogger(t *testing.T) {
	rr := httptest.NewRecorder()
	writeServiceError(rr, nil, errors.New("boom"), "Internal")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
