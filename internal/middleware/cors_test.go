package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCors_AllowedOrigin(t *testing.T) {
	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	req, err := http.NewRequest("GET", "/records/serj/current", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8080")

	rec := httptest.NewRecorder()
	Cors()(next).ServeHTTP(rec, req)

	assert.True(t, nextCalled)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCors_ForbiddenOrigin(t *testing.T) {
	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	req, err := http.NewRequest("GET", "/records/serj/current", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("User-Agent", "definitely-not-a-browser")

	rec := httptest.NewRecorder()
	Cors()(next).ServeHTTP(rec, req)

	assert.False(t, nextCalled)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCors_LogbookAuthCallbackWithoutOrigin(t *testing.T) {
	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	req, err := http.NewRequest("GET", "/fitness/auth/redirect?code=abc", nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	Cors()(next).ServeHTTP(rec, req)

	assert.True(t, nextCalled)
}
