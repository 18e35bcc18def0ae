package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsDriverPrefixes(t *testing.T) {
	assert.Equal(t, "duplicate key value", Sanitize("ERROR: duplicate key value"))
	assert.Equal(t, "connection refused", Sanitize("pgx: connection refused"))
	assert.Equal(t, "plain message", Sanitize("plain message"))
}

func TestErrorWritesJSONBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, 404, "Member not found")

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Member not found", body["error"])
}

func TestJSONWritesStatusAndPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, 201, map[string]int{"id": 42})

	assert.Equal(t, 201, rec.Code)

	var body map[string]int
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 42, body["id"])
}
