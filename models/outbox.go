package models

import (
	"errors"
	"time"

	"github.com/convene-events/convene/internal/activity"
	"github.com/convene-events/convene/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// An OutboxMessage is a durable record of an activity this server has
// published, keyed by the activity's own id. Write-once; never mutated.
type OutboxMessage struct {
	ActivityID   string `gorm:"size:255;primarykey"`
	CreatedAt    time.Time
	CalendarID   snowflake.ID   `gorm:"not null;index"`
	Calendar     *Calendar      `gorm:"constraint:OnDelete:CASCADE;<-:create;"`
	ActivityType string         `gorm:"size:16;not null"`
	Activity     map[string]any `gorm:"serializer:json;not null"`
}

// AfterCreate fans the published activity out to the calendar's accepted
// followers as delivery requests for the delivery worker. Followers whose
// actors have not been cached yet are skipped; their actors are cached the
// first time they make signed contact.
func (m *OutboxMessage) AfterCreate(tx *gorm.DB) error {
	rels, err := NewFollows(tx).Followers(m.CalendarID)
	if err != nil {
		return err
	}
	for _, rel := range rels {
		var actor RemoteActor
		err := tx.Where("uri = ?", rel.RemoteActor).Take(&actor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		request := &DeliveryRequest{
			OutboxMessageID: m.ActivityID,
			Inbox:           actor.Inbox(),
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(request).Error; err != nil {
			return err
		}
	}
	return nil
}

type Outbox struct {
	db *gorm.DB
}

func NewOutbox(db *gorm.DB) *Outbox {
	return &Outbox{db: db}
}

// Add publishes the activity to the calendar's outbox. An activity whose
// actor is not the calendar's own actor URI is refused; a calendar cannot
// publish on behalf of another actor.
func (o *Outbox) Add(calendar *Calendar, act *activity.Activity) error {
	if act.Actor != calendar.ActorURI() {
		return ErrActorMismatch
	}
	message := &OutboxMessage{
		ActivityID:   act.ID,
		CalendarID:   calendar.ID,
		ActivityType: act.Type.String(),
		Activity:     act.Wire(),
	}
	return o.db.Create(message).Error
}

// Count returns the number of messages in a calendar's outbox.
func (o *Outbox) Count(calendarID snowflake.ID) (int64, error) {
	var count int64
	return count, o.db.Model(&OutboxMessage{}).Where("calendar_id = ?", calendarID).Count(&count).Error
}

// Page returns up to limit outbox messages older than maxID, newest first.
func (o *Outbox) Page(calendarID snowflake.ID, maxID string, limit int) ([]OutboxMessage, error) {
	query := o.db.Where("calendar_id = ?", calendarID).Order("created_at desc").Limit(limit)
	if maxID != "" {
		var pivot OutboxMessage
		if err := o.db.Take(&pivot, "activity_id = ?", maxID).Error; err != nil {
			return nil, err
		}
		query = query.Where("created_at < ?", pivot.CreatedAt)
	}
	var messages []OutboxMessage
	return messages, query.Find(&messages).Error
}
