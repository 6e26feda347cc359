// Package wellknown serves the discovery endpoints peers use to resolve
// handles to actor documents.
package wellknown

import (
	"errors"
	"net/http"

	"github.com/convene-events/convene/activitypub"
	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/internal/webfinger"
	"github.com/convene-events/convene/models"
	"github.com/go-json-experiment/json"
	"gorm.io/gorm"
)

// WebfingerShow resolves a webfinger resource query to the actor it names.
// Calendar handles (music@example.com) resolve to Group actors, person
// handles (@alice@example.com) to Person actors. The lookup always uses the
// host the request arrived on, not the domain embedded in the query.
func WebfingerShow(env *activitypub.Env, w http.ResponseWriter, r *http.Request) error {
	acct := webfinger.Parse(r.URL.Query().Get("resource"))
	if acct.Kind == webfinger.KindUnknown {
		return httpx.Error(http.StatusBadRequest, errors.New("invalid resource"))
	}

	var self string
	switch acct.Kind {
	case webfinger.KindCalendar:
		calendar, err := models.NewCalendars(env.DB).Find(acct.Name, r.Host)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Error(http.StatusNotFound, errors.New("no such calendar"))
		}
		if err != nil {
			return err
		}
		self = calendar.ActorURI()
	case webfinger.KindPerson:
		var account models.Account
		err := env.DB.Where("name = ? AND domain = ?", acct.Name, r.Host).Take(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Error(http.StatusNotFound, errors.New("no such user"))
		}
		if err != nil {
			return err
		}
		self = account.ActorURI()
	}

	w.Header().Set("Content-Type", "application/jrd+json")
	return json.MarshalFull(w, map[string]any{
		"subject": acct.String(),
		"aliases": []string{self},
		"links": []map[string]any{
			{
				"rel":  "self",
				"type": "application/activity+json",
				"href": self,
			},
		},
	})
}
