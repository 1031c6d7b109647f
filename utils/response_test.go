package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, "Created", map[string]any{"id": "42"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Meta struct {
			Status  int  `json:"status"`
			Success bool `json:"success"`
		} `json:"meta"`
		Data struct {
			Message string         `json:"message"`
			Data    map[string]any `json:"data"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Meta.Success)
	assert.Equal(t, http.StatusCreated, body.Meta.Status)
	assert.Equal(t, "Created", body.Data.Message)
	assert.Equal(t, "42", body.Data.Data["id"])
}

func TestWriteErrorAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NotFound("Product not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Meta struct {
			Success bool `json:"success"`
		} `json:"meta"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Meta.Success)
	assert.Equal(t, "Product not found", body.Error.Message)
}

func TestWriteErrorMasksInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)

	token, err := ts.Generate("user-1", "u@example.com", "user")
	require.NoError(t, err)

	claims, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.NotEmpty(t, claims.Id)

	// A second token gets a distinct id, so blacklisting one does not
	// revoke the other.
	token2, err := ts.Generate("user-1", "u@example.com", "user")
	require.NoError(t, err)
	claims2, err := ts.Parse(token2)
	require.NoError(t, err)
	assert.NotEqual(t, claims.Id, claims2.Id)
}
