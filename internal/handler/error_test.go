package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) JSONError {
	t.Helper()
	var body JSONError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponse_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "not found",
			err:     domain.NotFound("inspection.get", "inspection", "abc"),
			status:  http.StatusNotFound,
			code:    domain.ENOTFOUND,
			message: `inspection with ID "abc" not found`,
		},
		{
			name:    "conflict",
			err:     domain.Conflict("inspection.complete", "inspection is already completed"),
			status:  http.StatusConflict,
			code:    domain.ECONFLICT,
			message: "inspection is already completed",
		},
		{
			name:    "invalid",
			err:     domain.Invalid("statistics.compute", "from must not be after to"),
			status:  http.StatusBadRequest,
			code:    domain.EINVALID,
			message: "from must not be after to",
		},
		{
			name:    "plain error is internal",
			err:     errors.New("connection reset by peer"),
			status:  http.StatusInternalServerError,
			code:    domain.EINTERNAL,
			message: "An internal error occurred. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := newTestLogger()
			req := httptest.NewRequest(http.MethodGet, "/api/inspections", nil)
			rec := httptest.NewRecorder()

			ErrorResponse(rec, req, logger, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestErrorResponse_InternalDetailsStayInLog(t *testing.T) {
	logger, logs := newTestLogger()
	req := httptest.NewRequest(http.MethodPost, "/api/inspections", nil)
	rec := httptest.NewRecorder()

	InternalErrorResponse(rec, req, logger, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password authentication")
	assert.Contains(t, logs.String(), "password authentication")
	assert.Contains(t, logs.String(), "level=ERROR")
}

func TestErrorResponse_LogsRootCauseOfWrappedStoreError(t *testing.T) {
	logger, logs := newTestLogger()
	req := httptest.NewRequest(http.MethodPost, "/api/inspections/x/complete", nil)
	rec := httptest.NewRecorder()

	driverErr := errors.New("pq: deadlock detected")
	storeErr := domain.Internal(driverErr, "repository.complete_inspection_record", "failed to complete inspection")
	err := domain.Internal(storeErr, "inspection.complete", "failed to complete inspection")

	ErrorResponse(rec, req, logger, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadlock")
	assert.Contains(t, logs.String(), `cause="pq: deadlock detected"`)
	assert.Contains(t, logs.String(), "op=inspection.complete")
}

func TestErrorCause(t *testing.T) {
	root := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"plain error", root, nil},
		{"domain error without cause", domain.Conflict("inspection.complete", "already completed"), nil},
		{"single wrap", domain.Internal(root, "op", "msg"), root},
		{"nested wraps", domain.Internal(domain.Internal(root, "inner", "msg"), "outer", "msg"), root},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCause(tt.err))
		})
	}
}

func TestErrorResponse_ClientErrorsLoggedAtInfo(t *testing.T) {
	logger, logs := newTestLogger()
	req := httptest.NewRequest(http.MethodGet, "/api/inspections/x", nil)
	rec := httptest.NewRecorder()

	NotFoundResponse(rec, req, logger)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, logs.String(), "level=INFO")
	assert.Contains(t, logs.String(), "client error")
}

func TestValidationErrorResponse_DoesNotExposeOperationName(t *testing.T) {
	logger, logs := newTestLogger()
	ve := domain.NewValidationError("inspection.complete", "Results[0].Severity", "must be one of LOW MEDIUM HIGH CRITICAL")

	req := httptest.NewRequest(http.MethodPost, "/api/inspections/1/complete", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, logger, ve)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "inspection.complete")

	body := decodeError(t, rec)
	assert.Equal(t, domain.EINVALID, body.Error.Code)
	assert.Equal(t, "Validation failed", body.Error.Message)
	assert.Equal(t, map[string]string{
		"Results[0].Severity": "must be one of LOW MEDIUM HIGH CRITICAL",
	}, body.Error.Fields)

	assert.Contains(t, logs.String(), "op=inspection.complete")
}

func TestValidationErrorResponse_FallsBackForOtherErrors(t *testing.T) {
	logger, _ := newTestLogger()
	req := httptest.NewRequest(http.MethodGet, "/api/inspections", nil)
	rec := httptest.NewRecorder()

	ValidationErrorResponse(rec, req, logger, domain.Conflict("op", "busy"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, decodeError(t, rec).Error.Fields)
}
