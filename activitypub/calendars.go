package activitypub

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/convene-events/convene/internal/activity"
	"github.com/convene-events/convene/internal/algorithms"
	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/internal/snowflake"
	"github.com/convene-events/convene/internal/to"
	"github.com/convene-events/convene/models"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// CalendarShow serves a calendar's actor document. Calendars are Group
// actors; followers address the calendar, not its editors.
func CalendarShow(env *Env, w http.ResponseWriter, r *http.Request) error {
	calendar, err := env.calendar(r)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusNotFound, errors.New("calendar not found"))
	}
	if err != nil {
		return err
	}
	return to.ActivityJSON(w, map[string]any{
		"@context":          activity.Context,
		"id":                calendar.ActorURI(),
		"type":              "Group",
		"preferredUsername": calendar.URLName,
		"name":              calendar.Name,
		"inbox":             calendar.InboxURL(),
		"outbox":            calendar.OutboxURL(),
		"followers":         calendar.FollowersURL(),
		"editors":           calendar.EditorsURL(),
		"attributedTo":      calendar.EditorsURL(),
		"publicKey": map[string]any{
			"id":           calendar.PublicKeyID(),
			"owner":        calendar.ActorURI(),
			"publicKeyPem": string(calendar.PublicKey),
		},
	})
}

// EventShow serves the ActivityPub object form of a calendar event.
func EventShow(env *Env, w http.ResponseWriter, r *http.Request) error {
	calendar, err := env.calendar(r)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusNotFound, errors.New("calendar not found"))
	}
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return httpx.Error(http.StatusNotFound, errors.New("event not found"))
	}
	event, err := models.NewEvents(env.DB).Find(calendar, snowflake.ID(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusNotFound, errors.New("event not found"))
	}
	if err != nil {
		return err
	}
	obj := event.ActivityObject(calendar)
	obj["@context"] = "https://www.w3.org/ns/activitystreams"
	return to.ActivityJSON(w, obj)
}

// FollowersIndex serves the collection of actors following the calendar.
// Only accepted follows are listed.
func FollowersIndex(env *Env, w http.ResponseWriter, r *http.Request) error {
	calendar, err := env.calendar(r)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusNotFound, errors.New("calendar not found"))
	}
	if err != nil {
		return err
	}
	rels, err := models.NewFollows(env.DB).Followers(calendar.ID)
	if err != nil {
		return err
	}
	return to.ActivityJSON(w, map[string]any{
		"@context":   "https://www.w3.org/ns/activitystreams",
		"id":         calendar.FollowersURL(),
		"type":       "OrderedCollection",
		"totalItems": len(rels),
		"orderedItems": algorithms.Map(rels, func(rel models.FollowRelationship) any {
			return rel.RemoteActor
		}),
	})
}

// EditorsIndex serves the collection of person actors with edit rights on
// the calendar.
func EditorsIndex(env *Env, w http.ResponseWriter, r *http.Request) error {
	calendar, err := env.calendar(r)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusNotFound, errors.New("calendar not found"))
	}
	if err != nil {
		return err
	}
	var editors []models.Account
	if err := env.DB.Model(calendar).Association("Editors").Find(&editors); err != nil {
		return err
	}
	return to.ActivityJSON(w, map[string]any{
		"@context":   "https://www.w3.org/ns/activitystreams",
		"id":         calendar.EditorsURL(),
		"type":       "OrderedCollection",
		"totalItems": len(editors),
		"orderedItems": algorithms.Map(editors, func(editor models.Account) any {
			return editor.ActorURI()
		}),
	})
}
