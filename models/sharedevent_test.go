package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShares(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Share records one row and one Announce", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		shares := NewShares(tx)
		const eventURL = "https://other.example/calendars/gigs/events/1"
		require.NoError(shares.Share(alice, calendar, eventURL))
		require.NoError(shares.Share(alice, calendar, eventURL)) // idempotent

		var rows []SharedEvent
		require.NoError(tx.Where("calendar_id = ?", calendar.ID).Find(&rows).Error)
		require.Len(rows, 1)
		require.Equal(eventURL, rows[0].EventURL)

		var messages []OutboxMessage
		require.NoError(tx.Where("calendar_id = ? AND activity_type = ?", calendar.ID, "Announce").Find(&messages).Error)
		require.Len(messages, 1)
		require.Equal(eventURL, messages[0].Activity["object"])
	})

	t.Run("Share rejects a non-https event url", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		err := NewShares(tx).Share(alice, calendar, "http://other.example/events/1")
		require.ErrorIs(err, ErrInvalidEventURL)

		var rowCount, msgCount int64
		require.NoError(tx.Model(&SharedEvent{}).Count(&rowCount).Error)
		require.NoError(tx.Model(&OutboxMessage{}).Count(&msgCount).Error)
		require.EqualValues(0, rowCount)
		require.EqualValues(0, msgCount)
	})

	t.Run("Share rejects an account without edit rights", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		mallory := MockAccount(t, tx, "mallory", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		err := NewShares(tx).Share(mallory, calendar, "https://other.example/events/1")
		require.ErrorIs(err, ErrNotEditor)

		var rowCount int64
		require.NoError(tx.Model(&SharedEvent{}).Count(&rowCount).Error)
		require.EqualValues(0, rowCount)
	})

	t.Run("Unshare undoes the announce and removes the row", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		shares := NewShares(tx)
		const eventURL = "https://other.example/calendars/gigs/events/1"
		require.NoError(shares.Share(alice, calendar, eventURL))

		var announce OutboxMessage
		require.NoError(tx.Where("calendar_id = ? AND activity_type = ?", calendar.ID, "Announce").Take(&announce).Error)

		require.NoError(shares.Unshare(alice, calendar, eventURL))

		var rowCount int64
		require.NoError(tx.Model(&SharedEvent{}).Where("calendar_id = ?", calendar.ID).Count(&rowCount).Error)
		require.EqualValues(0, rowCount)

		var undos []OutboxMessage
		require.NoError(tx.Where("calendar_id = ? AND activity_type = ?", calendar.ID, "Undo").Find(&undos).Error)
		require.Len(undos, 1)
		require.Equal(announce.ActivityID, undos[0].Activity["object"])
	})
}
