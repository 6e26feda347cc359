package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestAllowPerKey(t *testing.T) {
	require := require.New(t)
	l := New(rate.Limit(1), 2)

	require.True(l.Allow("a"))
	require.True(l.Allow("a"))
	require.False(l.Allow("a"))

	// a different key has its own bucket
	require.True(l.Allow("b"))
}

func TestMiddleware(t *testing.T) {
	require := require.New(t)
	l := New(rate.Limit(1), 1)
	handler := l.Middleware(func(*http.Request) string { return "k" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/calendars/music/inbox", nil))
	require.Equal(http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/calendars/music/inbox", nil))
	require.Equal(http.StatusTooManyRequests, w.Code)
}
