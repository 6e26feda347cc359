package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Creating an event publishes a Create activity", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		event := &Event{
			Name:     "Practice",
			StartsAt: time.Now().Add(24 * time.Hour),
			EndsAt:   time.Now().Add(26 * time.Hour),
		}
		require.NoError(NewEvents(tx).Create(calendar, event))

		var messages []OutboxMessage
		require.NoError(tx.Where("calendar_id = ? AND activity_type = ?", calendar.ID, "Create").Find(&messages).Error)
		require.Len(messages, 1)
		require.Equal(calendar.ActorURI(), messages[0].Activity["actor"])

		object, ok := messages[0].Activity["object"].(map[string]any)
		require.True(ok)
		require.Equal(event.URI(calendar), object["id"])
		require.Equal("Event", object["type"])
		require.Equal("Practice", object["name"])
	})

	t.Run("Updating an event publishes an Update activity", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		events := NewEvents(tx)
		event := &Event{Name: "Practice"}
		require.NoError(events.Create(calendar, event))

		event.Name = "Rehearsal"
		require.NoError(events.Update(event))

		var count int64
		require.NoError(tx.Model(&OutboxMessage{}).Where("calendar_id = ? AND activity_type = ?", calendar.ID, "Update").Count(&count).Error)
		require.EqualValues(1, count)
	})

	t.Run("Deleting an event publishes a Delete of its URI", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		events := NewEvents(tx)
		event := &Event{Name: "Practice"}
		require.NoError(events.Create(calendar, event))
		require.NoError(events.Delete(event))

		var message OutboxMessage
		require.NoError(tx.Where("calendar_id = ? AND activity_type = ?", calendar.ID, "Delete").Take(&message).Error)
		require.Equal(event.URI(calendar), message.Activity["object"])
	})
}
