package models

import (
	"fmt"
	"testing"

	"github.com/convene-events/convene/internal/activity"
	"github.com/convene-events/convene/internal/crypto"
	"github.com/convene-events/convene/internal/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// inboundFollow reconstructs a Follow as it would arrive from a peer.
func inboundFollow(t *testing.T, actorURI, objectURI string) *activity.Activity {
	t.Helper()
	act, ok := activity.FromObject(map[string]any{
		"id":     actorURI + "/follows/1",
		"type":   "Follow",
		"actor":  actorURI,
		"object": objectURI,
	})
	require.True(t, ok)
	return act
}

// MockAccount creates an account in the database.
func MockAccount(t *testing.T, tx *gorm.DB, name, domain string) *Account {
	t.Helper()
	require := require.New(t)

	account := &Account{
		ID:                snowflake.Now(),
		Name:              name,
		Domain:            domain,
		Email:             name + "@" + domain,
		EncryptedPassword: []byte("$2a$10$xxxxxxxxxxxxxxxxxxxxxx"),
	}
	require.NoError(tx.Create(account).Error)
	return account
}

// MockCalendar creates a calendar owned by the given account.
func MockCalendar(t *testing.T, tx *gorm.DB, owner *Account, urlName, domain string) *Calendar {
	t.Helper()
	require := require.New(t)

	kp, err := crypto.GenerateRSAKeypair()
	require.NoError(err)

	calendar := &Calendar{
		ID:         snowflake.Now(),
		Name:       urlName,
		URLName:    urlName,
		Domain:     domain,
		PublicKey:  kp.PublicKey,
		PrivateKey: kp.PrivateKey,
		Editors:    []*Account{owner},
	}
	require.NoError(tx.Create(calendar).Error)
	return calendar
}

// MockRemoteActor caches a remote Group actor.
func MockRemoteActor(t *testing.T, tx *gorm.DB, uri string) *RemoteActor {
	t.Helper()
	require := require.New(t)

	actor := &RemoteActor{
		ID:       snowflake.Now(),
		URI:      uri,
		Type:     "Group",
		InboxURL: uri + "/inbox",
	}
	require.NoError(tx.Create(actor).Error)
	return actor
}

// MockFollower records an accepted follow of calendar by the remote actor.
func MockFollower(t *testing.T, tx *gorm.DB, calendar *Calendar, actorURI string) *FollowRelationship {
	t.Helper()
	require := require.New(t)

	rel := &FollowRelationship{
		ID:          snowflake.Now(),
		ActivityID:  fmt.Sprintf("%s/follows/%d", actorURI, snowflake.Now()),
		CalendarID:  calendar.ID,
		RemoteActor: actorURI,
		Direction:   DirectionFollower,
		Accepted:    true,
	}
	require.NoError(tx.Create(rel).Error)
	return rel
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require := require.New(t)
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	require.NoError(err)

	err = db.AutoMigrate(AllTables()...)
	require.NoError(err)

	// enable foreign key constraints
	err = db.Exec("PRAGMA foreign_keys = ON").Error
	require.NoError(err)

	return db
}
