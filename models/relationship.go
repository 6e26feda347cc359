package models

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/convene-events/convene/internal/activity"
	"github.com/convene-events/convene/internal/snowflake"
	"github.com/convene-events/convene/internal/webfinger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Direction records which side initiated a follow relationship.
type Direction string

const (
	// DirectionFollowing: the local calendar follows the remote actor.
	DirectionFollowing Direction = "following"
	// DirectionFollower: the remote actor follows the local calendar.
	DirectionFollower Direction = "follower"
)

func (Direction) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql", "postgres":
		return "enum('following', 'follower')"
	case "sqlite":
		return "TEXT"
	default:
		return ""
	}
}

// A FollowRelationship records that a local calendar follows a remote actor,
// or the reverse, keyed by the id of the Follow activity that established
// it. The composite unique index keeps at most one active relationship per
// (remote actor, calendar, direction); concurrent duplicate follow requests
// collapse onto a single row via a conditional insert rather than a
// check-then-act sequence.
type FollowRelationship struct {
	ID          snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt   time.Time
	ActivityID  string       `gorm:"size:255;uniqueIndex;not null"`
	CalendarID  snowflake.ID `gorm:"uniqueIndex:idx_follow_key;not null"`
	Calendar    *Calendar    `gorm:"constraint:OnDelete:CASCADE;<-:create;"`
	RemoteActor string       `gorm:"size:255;uniqueIndex:idx_follow_key;not null"`
	Direction   Direction    `gorm:"size:16;uniqueIndex:idx_follow_key;not null"`
	Accepted    bool         `gorm:"not null;default:false"`
}

type Follows struct {
	db *gorm.DB
}

func NewFollows(db *gorm.DB) *Follows {
	return &Follows{db: db}
}

// Follow makes the calendar follow the remote calendar identified by a
// name@domain handle, with actor the handle's resolved actor document.
// Following an already followed target is a no-op: the relationship row and
// the Follow activity are only produced when the conditional insert actually
// takes.
func (f *Follows) Follow(calendar *Calendar, remote string, actor *RemoteActor) error {
	if !webfinger.Valid(remote) {
		return ErrInvalidIdentifier
	}
	follow := activity.NewFollow(calendar.ActorURI(), actor.URI)
	rel := &FollowRelationship{
		ID:          snowflake.Now(),
		ActivityID:  follow.ID,
		CalendarID:  calendar.ID,
		RemoteActor: remote,
		Direction:   DirectionFollowing,
	}
	return f.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rel)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// already following
			return nil
		}
		if err := NewOutbox(tx).Add(calendar, follow); err != nil {
			return err
		}
		// a Follow is addressed to its target, not to our followers
		return deliverTo(tx, follow.ID, actor.Inbox())
	})
}

// Unfollow removes every follow of the remote identifier held by the
// calendar. Duplicates should not normally exist but are tolerated; each
// row is undone by an Undo of its own activity id. A nil actor retracts the
// follow locally without addressing the Undo to a target, for targets that
// no longer resolve.
func (f *Follows) Unfollow(calendar *Calendar, remote string, actor *RemoteActor) error {
	return f.db.Transaction(func(tx *gorm.DB) error {
		var rels []FollowRelationship
		if err := tx.Where("remote_actor = ? AND calendar_id = ? AND direction = ?", remote, calendar.ID, DirectionFollowing).Find(&rels).Error; err != nil {
			return err
		}
		outbox := NewOutbox(tx)
		for _, rel := range rels {
			undo := activity.NewUndo(calendar.ActorURI(), rel.ActivityID)
			if err := outbox.Add(calendar, undo); err != nil {
				return err
			}
			if actor != nil {
				if err := deliverTo(tx, undo.ID, actor.Inbox()); err != nil {
					return err
				}
			}
			if err := tx.Delete(&FollowRelationship{}, "id = ?", rel.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// deliverTo queues a published activity for delivery to a single inbox, in
// addition to any follower fan-out done when the message was created.
func deliverTo(tx *gorm.DB, activityID, inbox string) error {
	request := &DeliveryRequest{
		OutboxMessageID: activityID,
		Inbox:           inbox,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(request).Error
}

// Accept records a remote actor's follow of the calendar, established by
// the given inbound Follow activity. Re-delivery of the same follow is a
// no-op.
func (f *Follows) Accept(calendar *Calendar, follow *activity.Activity) (bool, error) {
	rel := &FollowRelationship{
		ID:          snowflake.Now(),
		ActivityID:  follow.ID,
		CalendarID:  calendar.ID,
		RemoteActor: follow.Actor,
		Direction:   DirectionFollower,
		Accepted:    true,
	}
	res := f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(rel)
	return res.RowsAffected > 0, res.Error
}

// Confirm marks the calendar's outbound follow with the given activity id
// accepted. Only the followed domain may confirm: an Accept whose actor is
// hosted elsewhere is ignored, as activity ids are public knowledge via the
// outbox.
func (f *Follows) Confirm(calendar *Calendar, actor, activityID string) error {
	var rel FollowRelationship
	err := f.db.Where("activity_id = ? AND calendar_id = ? AND direction = ?", activityID, calendar.ID, DirectionFollowing).Take(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, domain, _ := strings.Cut(rel.RemoteActor, "@")
	u, err := url.Parse(actor)
	if err != nil || !strings.EqualFold(u.Host, domain) {
		return nil
	}
	return f.db.Model(&rel).Update("accepted", true).Error
}

// Undo removes the actor's follow of the calendar established by the
// activity with the given id. Scoped to the actor's own relationships:
// outbound follows and other actors' follows are untouchable no matter
// which activity id the Undo names.
func (f *Follows) Undo(calendar *Calendar, actor, activityID string) error {
	return f.db.Delete(&FollowRelationship{},
		"activity_id = ? AND calendar_id = ? AND remote_actor = ? AND direction = ?",
		activityID, calendar.ID, actor, DirectionFollower).Error
}

// Followers returns the accepted follower relationships of a calendar.
func (f *Follows) Followers(calendarID snowflake.ID) ([]FollowRelationship, error) {
	var rels []FollowRelationship
	return rels, f.db.Where("calendar_id = ? AND direction = ? AND accepted = ?", calendarID, DirectionFollower, true).Find(&rels).Error
}
