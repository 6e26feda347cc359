// Package social implements the client facing routes through which editors
// manage their calendars' follows and shares. Callers authenticate with a
// bearer token issued by the session layer.
package social

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/models"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// An ActorResolver resolves a name@domain handle to a cached remote actor,
// signing any fetches it makes as the given calendar.
type ActorResolver interface {
	Resolve(ctx context.Context, signAs *models.Calendar, handle string) (*models.RemoteActor, error)
}

type Env struct {
	*models.Env
	Resolver ActorResolver
}

// authenticate resolves the request's bearer token to the acting account.
func (e *Env) authenticate(r *http.Request) (*models.Account, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return nil, httpx.Error(http.StatusForbidden, errors.New("bearer token required"))
	}
	found, err := models.NewTokens(e.DB).FindByAccessToken(token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httpx.Error(http.StatusForbidden, errors.New("invalid bearer token"))
	}
	if err != nil {
		return nil, err
	}
	return found.Account, nil
}

// calendar resolves the calendar named in the request path. A name that does
// not resolve is a client error; these routes are only reachable by clients
// that should know their own calendars.
func (e *Env) calendar(r *http.Request) (*models.Calendar, error) {
	calendar, err := models.NewCalendars(e.DB).Find(chi.URLParam(r, "name"), r.Host)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httpx.Error(http.StatusBadRequest, errors.New("unknown calendar"))
	}
	return calendar, err
}

// mapError translates model errors into client facing status codes.
func mapError(err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidIdentifier), errors.Is(err, models.ErrInvalidEventURL):
		return httpx.Error(http.StatusBadRequest, err)
	case errors.Is(err, models.ErrNotEditor):
		return httpx.Error(http.StatusForbidden, err)
	default:
		return err
	}
}

// mapResolveError reports a failed handle resolution. A bad handle is the
// client's fault; an unreachable or malformed peer is a gateway error.
func mapResolveError(err error) error {
	if errors.Is(err, models.ErrInvalidIdentifier) {
		return httpx.Error(http.StatusBadRequest, err)
	}
	return httpx.Error(http.StatusBadGateway, err)
}
