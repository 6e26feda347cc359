package wellknown

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/convene-events/convene/activitypub"
	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/internal/to"
	"github.com/convene-events/convene/models"
	"github.com/go-chi/chi/v5"
)

func NodeInfoIndex(env *activitypub.Env, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("cache-control", "max-age=259200, public")
	return to.JSON(w, map[string]any{
		"links": []any{
			map[string]any{
				"rel":  "http://nodeinfo.diaspora.software/ns/schema/2.0",
				"href": fmt.Sprintf("https://%s/nodeinfo/2.0", r.Host),
			},
		},
	})
}

func NodeInfoShow(env *activitypub.Env, w http.ResponseWriter, r *http.Request) error {
	if chi.URLParam(r, "version") != "2.0" {
		return httpx.Error(http.StatusNotFound, errors.New("unsupported version: "+chi.URLParam(r, "version")))
	}
	var users, calendars int64
	if err := env.DB.Model(&models.Account{}).Where("domain = ?", r.Host).Count(&users).Error; err != nil {
		return err
	}
	if err := env.DB.Model(&models.Calendar{}).Where("domain = ?", r.Host).Count(&calendars).Error; err != nil {
		return err
	}
	// https://github.com/jhass/nodeinfo/blob/main/schemas/2.0/schema.json
	w.Header().Set("cache-control", "max-age=259200, public")
	return to.JSON(w, map[string]any{
		"version": "2.0",
		"software": map[string]any{
			"name":    "convene",
			"version": "0.0.0-devel",
		},
		"protocols": []any{"activitypub"},
		"services": map[string]any{
			"inbound":  []any{},
			"outbound": []any{},
		},
		"usage": map[string]any{
			"users": map[string]any{
				"total": users,
			},
		},
		"openRegistrations": false,
		"metadata": map[string]any{
			"calendars": calendars,
		},
	})
}
