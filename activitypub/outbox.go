package activitypub

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/convene-events/convene/internal/algorithms"
	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/internal/to"
	"github.com/convene-events/convene/models"
	"gorm.io/gorm"
)

const outboxPageSize = 20

// Outbox serves a calendar's outbox as an OrderedCollection. Without the
// page parameter only the collection envelope is returned; pages are served
// newest first, keyed by activity id.
func Outbox(env *Env, w http.ResponseWriter, r *http.Request) error {
	calendar, err := env.calendar(r)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusNotFound, errors.New("calendar not found"))
	}
	if err != nil {
		return err
	}
	switch parseBool(r, "page") {
	case true:
		return outboxShow(env, calendar, w, r)
	default:
		return outboxIndex(env, calendar, w, r)
	}
}

func outboxIndex(env *Env, calendar *models.Calendar, w http.ResponseWriter, r *http.Request) error {
	count, err := models.NewOutbox(env.DB).Count(calendar.ID)
	if err != nil {
		return err
	}
	return to.ActivityJSON(w, map[string]any{
		"@context":   "https://www.w3.org/ns/activitystreams",
		"id":         calendar.OutboxURL(),
		"type":       "OrderedCollection",
		"totalItems": count,
		"first":      calendar.OutboxURL() + "?page=true",
	})
}

func outboxShow(env *Env, calendar *models.Calendar, w http.ResponseWriter, r *http.Request) error {
	messages, err := models.NewOutbox(env.DB).Page(calendar.ID, r.URL.Query().Get("max_id"), outboxPageSize)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusNotFound, errors.New("no such page"))
	}
	if err != nil {
		return err
	}
	resp := map[string]any{
		"@context":     "https://www.w3.org/ns/activitystreams",
		"id":           fmt.Sprintf("https://%s%s?%s", r.Host, r.URL.Path, r.URL.RawQuery),
		"type":         "OrderedCollectionPage",
		"partOf":       calendar.OutboxURL(),
		"orderedItems": algorithms.Map(messages, messageToItem),
	}
	if len(messages) == outboxPageSize {
		last := messages[len(messages)-1]
		resp["next"] = fmt.Sprintf("%s?max_id=%s&page=true", calendar.OutboxURL(), url.QueryEscape(last.ActivityID))
	}
	return to.ActivityJSON(w, resp)
}

func messageToItem(m models.OutboxMessage) map[string]any {
	return m.Activity
}
