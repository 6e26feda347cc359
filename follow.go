package main

import (
	"context"
	"strings"

	"github.com/convene-events/convene/activitypub"
	"github.com/convene-events/convene/models"
	"gorm.io/gorm"
)

type FollowCmd struct {
	Calendar string `required:"" help:"handle of the local calendar, name@domain"`
	Target   string `required:"" help:"handle of the calendar to follow, name@domain"`
}

func (f *FollowCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	if err := configureDB(db); err != nil {
		return err
	}

	name, domain, ok := strings.Cut(f.Calendar, "@")
	if !ok {
		return models.ErrInvalidIdentifier
	}
	calendar, err := models.NewCalendars(db).Find(name, domain)
	if err != nil {
		return err
	}
	actor, err := activitypub.NewResolver(db).Resolve(context.Background(), calendar, f.Target)
	if err != nil {
		return err
	}
	return models.NewFollows(db).Follow(calendar, f.Target, actor)
}
