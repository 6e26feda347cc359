package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFollows(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Follow records one relationship and one outbound activity", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")
		actor := MockRemoteActor(t, tx, "https://other.example/calendars/gigs")

		follows := NewFollows(tx)
		require.NoError(follows.Follow(calendar, "gigs@other.example", actor))

		var rels []FollowRelationship
		require.NoError(tx.Where("calendar_id = ?", calendar.ID).Find(&rels).Error)
		require.Len(rels, 1)
		require.Equal("gigs@other.example", rels[0].RemoteActor)
		require.Equal(DirectionFollowing, rels[0].Direction)

		var messages []OutboxMessage
		require.NoError(tx.Where("calendar_id = ?", calendar.ID).Find(&messages).Error)
		require.Len(messages, 1)
		require.Equal("Follow", messages[0].ActivityType)
		require.Equal(rels[0].ActivityID, messages[0].ActivityID)
		require.Equal(actor.URI, messages[0].Activity["object"])

		var requests []DeliveryRequest
		require.NoError(tx.Where("outbox_message_id = ?", messages[0].ActivityID).Find(&requests).Error)
		require.Len(requests, 1)
		require.Equal(actor.Inbox(), requests[0].Inbox)
	})

	t.Run("Following twice is a no-op", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")
		actor := MockRemoteActor(t, tx, "https://other.example/calendars/gigs")

		follows := NewFollows(tx)
		require.NoError(follows.Follow(calendar, "gigs@other.example", actor))
		require.NoError(follows.Follow(calendar, "gigs@other.example", actor))

		var relCount, msgCount int64
		require.NoError(tx.Model(&FollowRelationship{}).Where("calendar_id = ?", calendar.ID).Count(&relCount).Error)
		require.NoError(tx.Model(&OutboxMessage{}).Where("calendar_id = ?", calendar.ID).Count(&msgCount).Error)
		require.EqualValues(1, relCount)
		require.EqualValues(1, msgCount)
	})

	t.Run("Follow rejects a malformed identifier", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")
		actor := MockRemoteActor(t, tx, "https://other.example/calendars/gigs")

		err := NewFollows(tx).Follow(calendar, "not-an-identifier", actor)
		require.ErrorIs(err, ErrInvalidIdentifier)

		var count int64
		require.NoError(tx.Model(&FollowRelationship{}).Count(&count).Error)
		require.EqualValues(0, count)
	})

	t.Run("Unfollow removes the relationship and undoes the follow", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")
		actor := MockRemoteActor(t, tx, "https://other.example/calendars/gigs")

		follows := NewFollows(tx)
		require.NoError(follows.Follow(calendar, "gigs@other.example", actor))

		var follow OutboxMessage
		require.NoError(tx.Where("calendar_id = ? AND activity_type = ?", calendar.ID, "Follow").Take(&follow).Error)

		require.NoError(follows.Unfollow(calendar, "gigs@other.example", actor))

		var relCount int64
		require.NoError(tx.Model(&FollowRelationship{}).Where("calendar_id = ?", calendar.ID).Count(&relCount).Error)
		require.EqualValues(0, relCount)

		var undos []OutboxMessage
		require.NoError(tx.Where("calendar_id = ? AND activity_type = ?", calendar.ID, "Undo").Find(&undos).Error)
		require.Len(undos, 1)
		require.Equal(follow.ActivityID, undos[0].Activity["object"])

		var requests []DeliveryRequest
		require.NoError(tx.Where("outbox_message_id = ?", undos[0].ActivityID).Find(&requests).Error)
		require.Len(requests, 1)
		require.Equal(actor.Inbox(), requests[0].Inbox)
	})

	t.Run("Accept tolerates re-delivery of the same follow", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")

		follow := inboundFollow(t, "https://other.example/calendars/gigs", calendar.ActorURI())

		follows := NewFollows(tx)
		created, err := follows.Accept(calendar, follow)
		require.NoError(err)
		require.True(created)

		created, err = follows.Accept(calendar, follow)
		require.NoError(err)
		require.False(created)

		var count int64
		require.NoError(tx.Model(&FollowRelationship{}).Where("calendar_id = ?", calendar.ID).Count(&count).Error)
		require.EqualValues(1, count)
	})

	t.Run("Confirm marks an outbound follow accepted", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")
		actor := MockRemoteActor(t, tx, "https://other.example/calendars/gigs")

		follows := NewFollows(tx)
		require.NoError(follows.Follow(calendar, "gigs@other.example", actor))

		var rel FollowRelationship
		require.NoError(tx.Where("calendar_id = ?", calendar.ID).Take(&rel).Error)
		require.False(rel.Accepted)

		require.NoError(follows.Confirm(calendar, actor.URI, rel.ActivityID))
		require.NoError(tx.Where("calendar_id = ?", calendar.ID).Take(&rel).Error)
		require.True(rel.Accepted)
	})

	t.Run("Confirm ignores an accept from a different domain", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")
		actor := MockRemoteActor(t, tx, "https://other.example/calendars/gigs")

		follows := NewFollows(tx)
		require.NoError(follows.Follow(calendar, "gigs@other.example", actor))

		var rel FollowRelationship
		require.NoError(tx.Where("calendar_id = ?", calendar.ID).Take(&rel).Error)

		require.NoError(follows.Confirm(calendar, "https://attacker.example/calendars/evil", rel.ActivityID))
		require.NoError(tx.Where("calendar_id = ?", calendar.ID).Take(&rel).Error)
		require.False(rel.Accepted)
	})

	t.Run("Undo only retracts the actor's own follow", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")
		follower := MockFollower(t, tx, calendar, "https://other.example/calendars/gigs")

		follows := NewFollows(tx)
		require.NoError(follows.Undo(calendar, "https://attacker.example/calendars/evil", follower.ActivityID))

		var count int64
		require.NoError(tx.Model(&FollowRelationship{}).Where("calendar_id = ?", calendar.ID).Count(&count).Error)
		require.EqualValues(1, count)

		require.NoError(follows.Undo(calendar, follower.RemoteActor, follower.ActivityID))
		require.NoError(tx.Model(&FollowRelationship{}).Where("calendar_id = ?", calendar.ID).Count(&count).Error)
		require.EqualValues(0, count)
	})

	t.Run("Undo never touches the calendar's outbound follows", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockAccount(t, tx, "alice", "example.com")
		calendar := MockCalendar(t, tx, alice, "music", "example.com")
		actor := MockRemoteActor(t, tx, "https://other.example/calendars/gigs")

		follows := NewFollows(tx)
		require.NoError(follows.Follow(calendar, "gigs@other.example", actor))

		var rel FollowRelationship
		require.NoError(tx.Where("calendar_id = ?", calendar.ID).Take(&rel).Error)

		// the follow activity id is public via the outbox
		require.NoError(follows.Undo(calendar, actor.URI, rel.ActivityID))

		var count int64
		require.NoError(tx.Model(&FollowRelationship{}).Where("calendar_id = ?", calendar.ID).Count(&count).Error)
		require.EqualValues(1, count)
	})
}
