package models

import (
	"time"

	"github.com/convene-events/convene/internal/activity"
	"github.com/convene-events/convene/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// An InboxMessage is a durable record of an activity accepted from a remote
// server, associated with the receiving calendar. Activity types without a
// synchronous handler are queued here and picked up by the inbox worker;
// processed messages are retained for audit.
type InboxMessage struct {
	ID           snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt    time.Time
	CalendarID   snowflake.ID   `gorm:"uniqueIndex:idx_inbox_activity;not null"`
	Calendar     *Calendar      `gorm:"constraint:OnDelete:CASCADE;<-:create;"`
	ActivityID   string         `gorm:"size:255;uniqueIndex:idx_inbox_activity;not null"`
	ActivityType string         `gorm:"size:16;not null"`
	Activity     map[string]any `gorm:"serializer:json;not null"`
	ProcessedAt  *time.Time
}

type Inboxes struct {
	db *gorm.DB
}

func NewInboxes(db *gorm.DB) *Inboxes {
	return &Inboxes{db: db}
}

// Add queues an inbound activity for asynchronous processing. Re-delivery
// of an activity id already recorded for the calendar is a no-op.
func (i *Inboxes) Add(calendar *Calendar, act *activity.Activity) error {
	message := &InboxMessage{
		ID:           snowflake.Now(),
		CalendarID:   calendar.ID,
		ActivityID:   act.ID,
		ActivityType: act.Type.String(),
		Activity:     act.Wire(),
	}
	return i.db.Clauses(clause.OnConflict{DoNothing: true}).Create(message).Error
}

// Unprocessed returns queued messages awaiting the inbox worker.
func (i *Inboxes) Unprocessed(limit int) ([]InboxMessage, error) {
	var messages []InboxMessage
	return messages, i.db.Where("processed_at IS NULL").Order("created_at").Limit(limit).Find(&messages).Error
}

// MarkProcessed stamps the message as handled.
func (i *Inboxes) MarkProcessed(message *InboxMessage) error {
	now := time.Now()
	return i.db.Model(message).Update("processed_at", &now).Error
}
