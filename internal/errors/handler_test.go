package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(includeStack bool) *ErrorHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewErrorHandler(logger, includeStack)
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	return problem
}

func TestErrorHandler_HandleError_AppErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantType    string
		wantErrType string
	}{
		{
			name:        "configuration error",
			err:         NewConfigurationError("window must be positive", nil),
			wantStatus:  http.StatusUnprocessableEntity,
			wantType:    TypeConfiguration,
			wantErrType: "CONFIGURATION",
		},
		{
			name:        "insufficient data error",
			err:         NewInsufficientDataError("correlation requires at least two countries"),
			wantStatus:  http.StatusUnprocessableEntity,
			wantType:    TypeInsufficientData,
			wantErrType: "INSUFFICIENT_DATA",
		},
		{
			name:        "empty dataset error",
			err:         NewEmptyDatasetError("no observations to aggregate"),
			wantStatus:  http.StatusUnprocessableEntity,
			wantType:    TypeEmptyDataset,
			wantErrType: "EMPTY_DATASET",
		},
		{
			name:        "validation error",
			err:         NewAppValidationError("seed out of range"),
			wantStatus:  http.StatusBadRequest,
			wantType:    TypeValidation,
			wantErrType: "VALIDATION",
		},
		{
			name:        "not found error",
			err:         NewNotFoundError("run"),
			wantStatus:  http.StatusNotFound,
			wantType:    TypeNotFound,
			wantErrType: "NOT_FOUND",
		},
		{
			name:        "storage error",
			err:         NewStorageError("archive write failed", errors.New("disk full")),
			wantStatus:  http.StatusInternalServerError,
			wantType:    TypeInternal,
			wantErrType: "STORAGE",
		},
		{
			name:        "wrapped app error",
			err:         fmt.Errorf("run failed: %w", NewEmptyDatasetError("nothing generated")),
			wantStatus:  http.StatusUnprocessableEntity,
			wantType:    TypeEmptyDataset,
			wantErrType: "EMPTY_DATASET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(false)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/analysis", nil)

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			problem := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, tt.wantErrType, problem["error_type"])
			assert.Equal(t, "/api/analysis", problem["instance"])
		})
	}
}

func TestErrorHandler_HandleError_AppErrorContext(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/analysis", nil)

	err := NewConfigurationError("invalid window", nil).WithContext("window_days", -1)
	handler.HandleError(w, r, err)

	problem := decodeProblem(t, w)
	assert.Equal(t, float64(-1), problem["window_days"])
}

func TestErrorHandler_HandleError_ContextErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"deadline exceeded", context.DeadlineExceeded},
		{"cancelled", context.Canceled},
		{"wrapped deadline", fmt.Errorf("generate: %w", context.DeadlineExceeded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(false)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/results", nil)

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, http.StatusGatewayTimeout, w.Code)
			problem := decodeProblem(t, w)
			assert.Equal(t, TypeTimeout, problem["type"])
		})
	}
}

func TestErrorHandler_HandleError_APIError(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/analysis/runs/missing", nil)

	handler.HandleError(w, r, ErrRunNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	problem := decodeProblem(t, w)
	assert.Equal(t, TypeNotFound, problem["type"])
	assert.Equal(t, "RUN_NOT_FOUND", problem["error_code"])
}

func TestErrorHandler_HandleError_GenericError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "unknown error becomes internal",
			err:        errors.New("something odd"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "not found by message",
			err:        errors.New("results file not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "rate limit by message",
			err:        errors.New("rate limit exceeded for client"),
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(false)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/results", nil)

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			problem := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, problem["type"])
		})
	}
}

func TestErrorHandler_HandleError_NilError(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	handler.HandleError(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	t.Run("without stack", func(t *testing.T) {
		handler := newTestHandler(false)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)

		handler.HandlePanic(w, r, "boom")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		problem := decodeProblem(t, w)
		assert.Equal(t, TypeInternal, problem["type"])
		assert.NotContains(t, problem, "stack")
	})

	t.Run("with stack", func(t *testing.T) {
		handler := newTestHandler(true)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)

		handler.HandlePanic(w, r, "boom")

		problem := decodeProblem(t, w)
		assert.Contains(t, problem, "stack")
		assert.Equal(t, "boom", problem["panic"])
	})
}

func TestErrorHandler_NotFound(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/missing", nil)

	handler.NotFound(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	problem := decodeProblem(t, w)
	assert.Equal(t, TypeNotFound, problem["type"])
}

func TestErrorHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/results", nil)

	handler.MethodNotAllowed(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	problem := decodeProblem(t, w)
	assert.Contains(t, problem["detail"], "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := newTestHandler(false)
	mw := RecoveryMiddleware(handler)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)

	mw(panicking).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	problem := decodeProblem(t, w)
	assert.Equal(t, TypeInternal, problem["type"])
}
