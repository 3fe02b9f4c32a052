package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParsePage_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/pools", nil)
	limit, offset := parsePage(r)
	assert.Equal(t, defaultLimit, limit)
	assert.Zero(t, offset)
}

func Test_ParsePage_ClampsLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/pools?limit=9999&offset=20", nil)
	limit, offset := parsePage(r)
	assert.Equal(t, maxLimit, limit)
	assert.Equal(t, 20, offset)
}

func Test_ParsePage_IgnoresBadValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/pools?limit=-5&offset=nope", nil)
	limit, offset := parsePage(r)
	assert.Equal(t, defaultLimit, limit)
	assert.Zero(t, offset)
}

func Test_PageOf_FlagsFullPage(t *testing.T) {
	assert.True(t, pageOf(50, 0, 50).HasMore)
	assert.False(t, pageOf(50, 0, 12).HasMore)
}

func Test_WriteData_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	writeData(w, 200, []string{"a", "b"}, pageOf(2, 0, 2))

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotNil(t, body.Page)
	assert.True(t, body.Page.HasMore)
	assert.Empty(t, body.Error)
}

func Test_WriteError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, 404, "pool not found")

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pool not found", body.Error)
	assert.Nil(t, body.Data)
}
