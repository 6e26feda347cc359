package main

import (
	"fmt"

	"github.com/convene-events/convene/models"
	"gorm.io/gorm"
)

type CreateCalendarCmd struct {
	Name    string `required:"" help:"display name of the calendar"`
	URLName string `required:"" help:"url name of the calendar, forms its handle"`
	Domain  string `required:"" help:"domain the calendar is served from"`
	Owner   string `required:"" help:"email address of the owning account"`
}

func (c *CreateCalendarCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	if err := configureDB(db); err != nil {
		return err
	}

	var owner models.Account
	if err := db.Where("email = ?", c.Owner).Take(&owner).Error; err != nil {
		return err
	}

	calendar, err := models.NewCalendars(db).Create(&owner, c.Name, c.URLName, c.Domain)
	if err != nil {
		return err
	}
	fmt.Println("actor:", calendar.ActorURI())
	return nil
}
