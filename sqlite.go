//go:build sqlite

package main

// sqlite support; the default convene.db DSN lands in the working directory

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newDialector(dsn string) gorm.Dialector {
	return &sqlite.Dialector{
		DSN: dsn,
	}
}

func configureDB(db *gorm.DB) error {
	// events and relationships cascade from their calendar; sqlite only
	// honours those constraints with the pragma on
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return err
	}
	// the HTTP handlers and both workers share one file; WAL keeps reads
	// unblocked during delivery bursts
	return db.Exec("PRAGMA journal_mode = WAL").Error
}
