package activitypub

import (
	"errors"
	"net/http"

	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/internal/to"
	"github.com/convene-events/convene/models"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// UserShow serves a local account's Person actor document.
func UserShow(env *Env, w http.ResponseWriter, r *http.Request) error {
	var account models.Account
	err := env.DB.Where("name = ? AND domain = ?", chi.URLParam(r, "name"), r.Host).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httpx.Error(http.StatusNotFound, errors.New("user not found"))
	}
	if err != nil {
		return err
	}
	return to.ActivityJSON(w, map[string]any{
		"@context":          "https://www.w3.org/ns/activitystreams",
		"id":                account.ActorURI(),
		"type":              "Person",
		"preferredUsername": account.Name,
	})
}
