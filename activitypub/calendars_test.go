package activitypub

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/convene-events/convene/internal/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/require"
)

func calendarRouter(env *Env) http.Handler {
	mux := chi.NewRouter()
	mux.Get("/calendars/{name}", httpx.HandlerFunc(func(r *http.Request) *Env { return env }, CalendarShow))
	return mux
}

func TestCalendarShow(t *testing.T) {
	db := setupTestDB(t)

	t.Run("the actor document names the calendar's collections", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := mockAccount(t, tx, "alice", "example.com")
		calendar := mockCalendar(t, tx, alice, "music", "example.com")

		rec := httptest.NewRecorder()
		calendarRouter(testEnv(tx)).ServeHTTP(rec, httptest.NewRequest("GET", "https://example.com/calendars/music", nil))
		require.Equal(http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(calendar.ActorURI(), body["id"])
		require.Equal("Group", body["type"])
		require.Equal(calendar.InboxURL(), body["inbox"])
		require.Equal(calendar.OutboxURL(), body["outbox"])
		require.Equal(calendar.FollowersURL(), body["followers"])
		require.Equal(calendar.EditorsURL(), body["editors"])
		require.Equal(calendar.EditorsURL(), body["attributedTo"])

		key, ok := body["publicKey"].(map[string]any)
		require.True(ok)
		require.Equal(calendar.PublicKeyID(), key["id"])
		require.Equal(calendar.ActorURI(), key["owner"])
		require.NotEmpty(key["publicKeyPem"])
	})

	t.Run("an unknown calendar is a 404", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		rec := httptest.NewRecorder()
		calendarRouter(testEnv(tx)).ServeHTTP(rec, httptest.NewRequest("GET", "https://example.com/calendars/missing", nil))
		require.Equal(http.StatusNotFound, rec.Code)
	})
}
