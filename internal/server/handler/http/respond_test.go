package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/recipebox/internal/apperr"
)

func TestWriteError_ValidationCarriesReasonOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperr.Validationf("name is required"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "name is required" {
		t.Errorf("expected bare reason in body, got %q", body)
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{"invalid credentials", apperr.ErrInvalidCredentials, http.StatusBadRequest},
		{"unauthenticated", apperr.ErrUnauthenticated, http.StatusUnauthorized},
		{"not found", apperr.ErrNotFound, http.StatusNotFound},
		{"already exists", apperr.ErrAlreadyExists, http.StatusConflict},
		{"unknown", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)
			if rec.Code != tc.expectedCode {
				t.Errorf("expected status %d, got %d", tc.expectedCode, rec.Code)
			}
		})
	}
}
