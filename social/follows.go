package social

import (
	"errors"
	"net/http"

	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/internal/to"
	"github.com/convene-events/convene/models"
)

// FollowsCreate makes the calendar follow a remote calendar identified by a
// name@domain handle. Only editors of the calendar may manage its follows.
func FollowsCreate(env *Env, w http.ResponseWriter, r *http.Request) error {
	account, err := env.authenticate(r)
	if err != nil {
		return err
	}
	calendar, err := env.calendar(r)
	if err != nil {
		return err
	}
	if err := env.authorizeEditor(account, calendar); err != nil {
		return err
	}
	var params struct {
		Target string `json:"target"`
	}
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	actor, err := env.Resolver.Resolve(r.Context(), calendar, params.Target)
	if err != nil {
		return mapResolveError(err)
	}
	if err := models.NewFollows(env.DB).Follow(calendar, params.Target, actor); err != nil {
		return mapError(err)
	}
	return to.JSON(w, map[string]any{
		"calendar":  calendar.ActorURI(),
		"following": params.Target,
	})
}

// FollowsDestroy withdraws the calendar's follow of the remote calendar.
func FollowsDestroy(env *Env, w http.ResponseWriter, r *http.Request) error {
	account, err := env.authenticate(r)
	if err != nil {
		return err
	}
	calendar, err := env.calendar(r)
	if err != nil {
		return err
	}
	if err := env.authorizeEditor(account, calendar); err != nil {
		return err
	}
	var params struct {
		Target string `json:"target"`
	}
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	// the follow is retracted locally even when the target no longer
	// resolves; only the Undo delivery is skipped
	actor, err := env.Resolver.Resolve(r.Context(), calendar, params.Target)
	if errors.Is(err, models.ErrInvalidIdentifier) {
		return mapError(err)
	}
	if err != nil {
		actor = nil
	}
	if err := models.NewFollows(env.DB).Unfollow(calendar, params.Target, actor); err != nil {
		return mapError(err)
	}
	return to.JSON(w, map[string]any{
		"calendar":  calendar.ActorURI(),
		"following": nil,
	})
}

// authorizeEditor refuses accounts without edit rights on the calendar.
func (e *Env) authorizeEditor(account *models.Account, calendar *models.Calendar) error {
	editor, err := models.NewCalendars(e.DB).IsEditor(calendar, account)
	if err != nil {
		return err
	}
	if !editor {
		return mapError(models.ErrNotEditor)
	}
	return nil
}
