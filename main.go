package main

import (
	"github.com/alecthomas/kong"
	"gorm.io/gorm"
)

type Context struct {
	Debug bool

	gorm.Config
	Dialector gorm.Dialector
}

var cli struct {
	Debug bool   `help:"Enable debug mode."`
	DSN   string `help:"data source name" default:"convene.db"`

	Serve          ServeCmd          `cmd:"" help:"Serve the federation endpoints."`
	AutoMigrate    AutoMigrateCmd    `cmd:"" help:"Migrate the database to the current schema."`
	CreateAccount  CreateAccountCmd  `cmd:"" help:"Create a new account."`
	CreateCalendar CreateCalendarCmd `cmd:"" help:"Create a new calendar."`
	Follow         FollowCmd         `cmd:"" help:"Make a calendar follow a remote calendar."`
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run(&Context{
		Debug:     cli.Debug,
		Dialector: newDialector(cli.DSN),
	})
	ctx.FatalIfErrorf(err)
}
