package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "civicpulse/internal/errors"
)

func newValidationMiddleware() *ValidationMiddleware {
	logger := slog.Default()
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
}

func TestValidationMiddleware_ValidateRequest(t *testing.T) {
	m := newValidationMiddleware()

	var reached bool
	handler := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantNext   bool
	}{
		{name: "get passes through", method: http.MethodGet, wantStatus: http.StatusOK, wantNext: true},
		{name: "valid json", method: http.MethodPost, body: `{"seed": 42}`, wantStatus: http.StatusOK, wantNext: true},
		{name: "invalid json", method: http.MethodPost, body: `{"seed":`, wantStatus: http.StatusBadRequest, wantNext: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false

			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, "/api/analysis", bytes.NewBufferString(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, "/api/analysis", nil)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantNext, reached)
		})
	}
}

func TestValidationMiddleware_ValidateRunIDParam(t *testing.T) {
	m := newValidationMiddleware()

	r := chi.NewRouter()
	r.With(m.ValidateRunIDParam("id")).Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{name: "uuid style", id: "3f2c9b1e-7c44-4e57-9a1d-0d9a6c2f8b11", wantStatus: http.StatusOK},
		{name: "plain id", id: "run-42", wantStatus: http.StatusOK},
		{name: "too long", id: strings.Repeat("x", 200), wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/runs/"+tt.id, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestValidationMiddleware_ValidateStruct(t *testing.T) {
	m := newValidationMiddleware()

	type request struct {
		ReferenceDate string `json:"reference_date" validate:"iso8601"`
		CountryID     string `json:"country_id" validate:"country_id"`
		RunID         string `json:"run_id" validate:"run_id"`
	}

	valid := request{
		ReferenceDate: "2024-06-15",
		CountryID:     "united_states",
		RunID:         "a3f0c2d1-9b4e-4f6a-8c7d-1e2f3a4b5c6d",
	}
	require.NoError(t, m.ValidateStruct(valid))

	tests := []struct {
		name string
		req  request
	}{
		{name: "impossible date", req: request{ReferenceDate: "2024-13-40", CountryID: "sweden", RunID: "run-1"}},
		{name: "uppercase country", req: request{ReferenceDate: "2024-06-15", CountryID: "Sweden", RunID: "run-1"}},
		{name: "run id with slash", req: request{ReferenceDate: "2024-06-15", CountryID: "sweden", RunID: "../etc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, m.ValidateStruct(tt.req))
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	handler := ContentTypeValidator("application/json")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{name: "json accepted", method: http.MethodPost, contentType: "application/json", wantStatus: http.StatusOK},
		{name: "json with charset", method: http.MethodPost, contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "missing content type", method: http.MethodPost, contentType: "", wantStatus: http.StatusBadRequest},
		{name: "xml rejected", method: http.MethodPost, contentType: "application/xml", wantStatus: http.StatusUnsupportedMediaType},
		{name: "get skipped", method: http.MethodGet, contentType: "", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/analysis", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestQueryParamValidator_ValidateInt(t *testing.T) {
	logger := slog.Default()
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	tests := []struct {
		name      string
		query     string
		wantValue int
		wantOK    bool
	}{
		{name: "missing uses default", query: "", wantValue: 20, wantOK: true},
		{name: "valid value", query: "limit=50", wantValue: 50, wantOK: true},
		{name: "not a number", query: "limit=abc", wantOK: false},
		{name: "out of range", query: "limit=5000", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analysis/runs?"+tt.query, nil)
			w := httptest.NewRecorder()

			value, ok := v.ValidateInt(w, req, "limit", 1, 100, 20)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantValue, value)
			}
		})
	}
}
