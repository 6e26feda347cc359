package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/convene-events/convene/models"
	"gorm.io/gorm"
)

type CreateAccountCmd struct {
	Email    string `required:"" help:"email address of the user to create"`
	Password string `required:"" help:"password of the user to create"`
	Admin    bool   `help:"create an admin account"`
}

func (c *CreateAccountCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	if err := configureDB(db); err != nil {
		return err
	}

	name, domain, ok := strings.Cut(c.Email, "@")
	if !ok {
		return errors.New("invalid email address")
	}

	account, err := models.NewAccounts(db).Create(name, domain, c.Email, c.Password)
	if err != nil {
		return err
	}
	if c.Admin {
		account.Admin = true
		if err := db.Save(account).Error; err != nil {
			return err
		}
	}

	token, err := models.NewTokens(db).Create(account)
	if err != nil {
		return err
	}
	fmt.Println("actor:", account.ActorURI())
	fmt.Println("token:", token.AccessToken)
	return nil
}
