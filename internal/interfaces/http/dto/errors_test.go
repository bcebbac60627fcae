package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeSearchQueryTooShort, http.StatusBadRequest},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidHierarchy, http.StatusBadRequest},
		{ErrCodeHierarchyTooDeep, http.StatusBadRequest},
		{ErrCodeInvalidRoute, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidURL, http.StatusBadRequest},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"FORBIDDEN", ErrCodeForbidden},
		{"UPSTREAM_UNAVAILABLE", ErrCodeUpstreamUnavailable},
		{"INVALID_HIERARCHY", ErrCodeInvalidHierarchy},
		{"HIERARCHY_TOO_DEEP", ErrCodeHierarchyTooDeep},
		{"INVALID_ROUTE", ErrCodeInvalidRoute},
		{"SEARCH_QUERY_TOO_SHORT", ErrCodeSearchQueryTooShort},
		// API codes pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{ErrCodeValidation, ErrCodeValidation},
		// Unknown codes pass through unchanged
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestDomainCodesHaveStatus(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		t.Run(domainCode, func(t *testing.T) {
			_, ok := ErrorCodeHTTPStatus[apiCode]
			assert.True(t, ok, "code %s should be in ErrorCodeHTTPStatus map", apiCode)
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("NOT_FOUND", "Product not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Product not found", resp.Error.Message)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "per_page", Message: "Must be at most 100"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Category not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, false, decoded["success"])
	errObj, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, errObj["code"])
	assert.Equal(t, "Category not found", errObj["message"])
	assert.Equal(t, "req-test-123", errObj["request_id"])
	assert.NotContains(t, decoded, "data")
}

func TestErrorResponseTimestamp(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse(ErrCodeInternal, "Server error")
	after := time.Now()

	assert.False(t, resp.Error.Timestamp.Before(before))
	assert.False(t, resp.Error.Timestamp.After(after))
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"status": "ok"})

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}
