package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	t.Run("writes status and payload", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := WriteJSON(rec, http.StatusTeapot, map[string]string{"k": "v"})
		require.NoError(t, err)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"k":"v"}`, rec.Body.String())
	})

	t.Run("nil data writes an empty body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, WriteJSON(rec, http.StatusOK, nil))
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteOK(rec, map[string]string{"provider": "openai"}))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp SuccessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotNil(t, resp.Data)
}

func TestWriteBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteBadRequest(rec, "bad payload", map[string]interface{}{"field": "query"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "bad payload", resp.Message)
	assert.Equal(t, "query", resp.Details["field"])
}

func TestWriteUnauthorized(t *testing.T) {
	t.Run("custom message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, WriteUnauthorized(rec, "token expired"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "token expired", decodeError(t, rec).Message)
	})

	t.Run("default message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, WriteUnauthorized(rec, ""))
		assert.Equal(t, "Authentication required", decodeError(t, rec).Message)
	})
}

func TestWriteForbidden(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteForbidden(rec, ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "forbidden", resp.Error)
	assert.Equal(t, "Access forbidden", resp.Message)
}

func TestWriteNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteNotFound(rec, "no such user"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error)
}

func TestWriteTooManyRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteTooManyRequests(rec, "", map[string]interface{}{"reset_at": "soon"}))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "rate_limit_exceeded", resp.Error)
	assert.Equal(t, "Rate limit exceeded", resp.Message)
	assert.Equal(t, "soon", resp.Details["reset_at"])
}

func TestWriteInternalServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteInternalServerError(rec, ""))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Error)
}
