package activitypub

import (
	"crypto/rsa"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/convene-events/convene/internal/activity"
	"github.com/convene-events/convene/internal/crypto"
	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/internal/snowflake"
	"github.com/convene-events/convene/internal/to"
	"github.com/convene-events/convene/models"
	"github.com/go-fed/httpsig"
	"github.com/go-json-experiment/json"
	"gorm.io/gorm"
)

// InboxCreate accepts an activity delivered to a calendar's inbox. The
// sender's signature is verified before the body is inspected; activities
// from person actors that edit calendar events are applied synchronously so
// the sender learns the outcome from the response, everything else is queued
// for the inbox worker.
func InboxCreate(env *Env, w http.ResponseWriter, r *http.Request) error {
	calendar, err := env.calendar(r)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusNotFound, errors.New("calendar not found"))
	}
	if err != nil {
		return err
	}

	if err := env.verifySignature(calendar, r); err != nil {
		return httpx.Error(http.StatusUnauthorized, err)
	}

	var body map[string]any
	if err := json.UnmarshalFull(r.Body, &body); err != nil {
		return httpx.Error(http.StatusBadRequest, err)
	}
	if details := activity.Validate(body); len(details) > 0 {
		return httpx.ValidationError(details)
	}
	act, ok := activity.FromObject(body)
	if !ok {
		return httpx.Error(http.StatusBadRequest, errors.New("malformed activity"))
	}

	switch act.Type {
	case activity.TypeCreate, activity.TypeUpdate, activity.TypeDelete:
		if models.IsPersonActorURI(act.Actor) {
			return applyEdit(env, calendar, act, w)
		}
	}

	if err := models.NewInboxes(env.DB).Add(calendar, act); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

// applyEdit applies a Create, Update or Delete sent by a person actor to the
// calendar's events. Only editors of the calendar may edit its events; the
// outcome is reported synchronously so an editing client sees failures.
func applyEdit(env *Env, calendar *models.Calendar, act *activity.Activity, w http.ResponseWriter) error {
	account, err := models.NewAccounts(env.DB).FindByActorURI(act.Actor)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusForbidden, models.ErrNotEditor)
	}
	if err != nil {
		return err
	}
	editor, err := models.NewCalendars(env.DB).IsEditor(calendar, account)
	if err != nil {
		return err
	}
	if !editor {
		return httpx.Error(http.StatusForbidden, models.ErrNotEditor)
	}

	events := models.NewEvents(env.DB)
	switch act.Type {
	case activity.TypeCreate:
		event, details := eventFromObject(act.Object.Embedded)
		if len(details) > 0 {
			return httpx.ValidationError(details)
		}
		if err := events.Create(calendar, event); err != nil {
			return err
		}
		return respondWithEvent(w, calendar, event)
	case activity.TypeUpdate:
		id, ok := eventIDFromURI(act.Object.ID())
		if !ok {
			return httpx.ValidationError([]string{"object id does not name an event on this calendar"})
		}
		event, err := events.Find(calendar, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Error(http.StatusNotFound, errors.New("event not found"))
		}
		if err != nil {
			return err
		}
		update, details := eventFromObject(act.Object.Embedded)
		if len(details) > 0 {
			return httpx.ValidationError(details)
		}
		event.Name = update.Name
		event.Summary = update.Summary
		event.Location = update.Location
		event.StartsAt = update.StartsAt
		event.EndsAt = update.EndsAt
		if err := events.Update(event); err != nil {
			return err
		}
		return respondWithEvent(w, calendar, event)
	case activity.TypeDelete:
		id, ok := eventIDFromURI(act.Object.ID())
		if !ok {
			return httpx.ValidationError([]string{"object id does not name an event on this calendar"})
		}
		event, err := events.Find(calendar, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// deleting an event that is already gone is not an error
			return to.JSON(w, map[string]any{"deleted": act.Object.ID()})
		}
		if err != nil {
			return err
		}
		if err := events.Delete(event); err != nil {
			return err
		}
		return to.JSON(w, map[string]any{"deleted": act.Object.ID()})
	}
	return nil
}

// respondWithEvent acknowledges a synchronously applied edit with the
// resulting object, so the editing client sees the server's version of it.
func respondWithEvent(w http.ResponseWriter, calendar *models.Calendar, event *models.Event) error {
	obj := event.ActivityObject(calendar)
	obj["@context"] = "https://www.w3.org/ns/activitystreams"
	return to.ActivityJSON(w, obj)
}

// eventFromObject builds an event from an embedded activity object,
// returning an itemized list of violations when the object is not a usable
// Event.
func eventFromObject(obj map[string]any) (*models.Event, []string) {
	var details []string
	if typ := stringFromAny(obj["type"]); typ != "Event" {
		details = append(details, "object type must be Event, got "+strconv.Quote(typ))
	}
	name := stringFromAny(obj["name"])
	if name == "" {
		details = append(details, "object name must be a non-empty string")
	}
	if len(details) > 0 {
		return nil, details
	}
	return &models.Event{
		Name:     name,
		Summary:  stringFromAny(obj["summary"]),
		Location: stringFromAny(mapFromAny(obj["location"])["name"]),
		StartsAt: timeFromAnyOrZero(obj["startTime"]),
		EndsAt:   timeFromAnyOrZero(obj["endTime"]),
	}, nil
}

// eventIDFromURI extracts the event id from an event object URI.
func eventIDFromURI(uri string) (snowflake.ID, bool) {
	_, raw, ok := strings.Cut(uri, "/events/")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return snowflake.ID(id), true
}

// verifySignature checks the request's HTTP signature. Unknown keys are
// resolved by dereferencing the actor document, signed as the receiving
// calendar, and cached for subsequent deliveries.
func (e *Env) verifySignature(calendar *models.Calendar, r *http.Request) error {
	verifier, err := httpsig.NewVerifier(r)
	if err != nil {
		return err
	}
	pubKey, err := e.getKey(calendar, verifier.KeyId())
	if err != nil {
		return err
	}
	return verifier.Verify(pubKey, httpsig.RSA_SHA256)
}

func (e *Env) getKey(calendar *models.Calendar, keyID string) (*rsa.PublicKey, error) {
	fetcher := NewRemoteActorFetcher(calendar)
	actor, err := models.NewRemoteActors(e.DB).FindOrCreate(trimKeyID(keyID), fetcher.Fetch)
	if err != nil {
		return nil, err
	}
	return crypto.ParseRSAPublicKey(actor.PublicKey)
}
