// Package activitypub implements the server to server surface: actor
// documents, inbox ingestion and the outbox collection.
package activitypub

import (
	"net/http"
	"strings"
	"time"

	"github.com/convene-events/convene/models"
	"github.com/go-chi/chi/v5"
)

type Env struct {
	*models.Env
}

// calendar resolves the calendar addressed by the request path, matching the
// request's host so that a multi-domain deployment serves only its own
// calendars.
func (e *Env) calendar(r *http.Request) (*models.Calendar, error) {
	return models.NewCalendars(e.DB).Find(chi.URLParam(r, "name"), r.Host)
}

// trimKeyID removes the key fragment from a key id, leaving the actor URI.
func trimKeyID(id string) string {
	if i := strings.Index(id, "#"); i != -1 {
		return id[:i]
	}
	return id
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

func mapFromAny(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func timeFromAnyOrZero(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// parseBool parses a boolean value from a request parameter.
// If the parameter is not present, it returns false.
// If the parameter is present but cannot be parsed, it returns false
func parseBool(r *http.Request, key string) bool {
	switch r.URL.Query().Get(key) {
	case "true", "1":
		return true
	default:
		return false
	}
}
