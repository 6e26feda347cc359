package social

import (
	"net/http"

	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/internal/to"
	"github.com/convene-events/convene/models"
)

// SharesCreate announces a remote event on the calendar.
func SharesCreate(env *Env, w http.ResponseWriter, r *http.Request) error {
	account, err := env.authenticate(r)
	if err != nil {
		return err
	}
	calendar, err := env.calendar(r)
	if err != nil {
		return err
	}
	var params struct {
		EventURL string `json:"event_url"`
	}
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	if err := models.NewShares(env.DB).Share(account, calendar, params.EventURL); err != nil {
		return mapError(err)
	}
	return to.JSON(w, map[string]any{
		"calendar": calendar.ActorURI(),
		"shared":   params.EventURL,
	})
}

// SharesDestroy withdraws the calendar's share of the event.
func SharesDestroy(env *Env, w http.ResponseWriter, r *http.Request) error {
	account, err := env.authenticate(r)
	if err != nil {
		return err
	}
	calendar, err := env.calendar(r)
	if err != nil {
		return err
	}
	var params struct {
		EventURL string `json:"event_url"`
	}
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	if err := models.NewShares(env.DB).Unshare(account, calendar, params.EventURL); err != nil {
		return mapError(err)
	}
	return to.JSON(w, map[string]any{
		"calendar": calendar.ActorURI(),
		"shared":   nil,
	})
}
