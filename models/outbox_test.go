package models

import (
	"testing"

	"github.com/convene-events/convene/internal/activity"
	"github.com/stretchr/testify/require"
)

func TestOutbox(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Add refuses an activity impersonating another actor", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		imposter := activity.NewFollow("https://other.example/calendars/gigs", "music@example.com")
		err := NewOutbox(tx).Add(calendar, imposter)
		require.ErrorIs(err, ErrActorMismatch)

		var count int64
		require.NoError(tx.Model(&OutboxMessage{}).Count(&count).Error)
		require.EqualValues(0, count)
	})

	t.Run("Add fans out delivery requests to accepted followers", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		const followerURI = "https://other.example/calendars/gigs"
		MockFollower(t, tx, calendar, followerURI)
		remote := MockRemoteActor(t, tx, followerURI)

		announce := activity.NewAnnounce(calendar.ActorURI(), "https://third.example/events/1")
		require.NoError(NewOutbox(tx).Add(calendar, announce))

		var requests []DeliveryRequest
		require.NoError(tx.Find(&requests).Error)
		require.Len(requests, 1)
		require.Equal(announce.ID, requests[0].OutboxMessageID)
		require.Equal(remote.Inbox(), requests[0].Inbox)
	})

	t.Run("Add skips followers whose actors are not cached", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		MockFollower(t, tx, calendar, "https://other.example/calendars/unknown")

		announce := activity.NewAnnounce(calendar.ActorURI(), "https://third.example/events/1")
		require.NoError(NewOutbox(tx).Add(calendar, announce))

		var count int64
		require.NoError(tx.Model(&DeliveryRequest{}).Count(&count).Error)
		require.EqualValues(0, count)
	})
}
