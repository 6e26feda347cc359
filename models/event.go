package models

import (
	"fmt"
	"time"

	"github.com/convene-events/convene/internal/activity"
	"github.com/convene-events/convene/internal/snowflake"
	"gorm.io/gorm"
)

// PublicAudience is the ActivityStreams marker for publicly addressed
// activities.
const PublicAudience = "https://www.w3.org/ns/activitystreams#Public"

// An Event is a calendar entry. Local edits federate automatically: the
// gorm hooks below translate each create, update and delete into an
// activity published through the owning calendar's outbox.
type Event struct {
	ID         snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CalendarID snowflake.ID `gorm:"not null;index"`
	Calendar   *Calendar    `gorm:"constraint:OnDelete:CASCADE;<-:create;"`
	Name       string       `gorm:"size:255;not null"`
	Summary    string       `gorm:"type:text"`
	Location   string       `gorm:"size:255"`
	StartsAt   time.Time
	EndsAt     time.Time
}

// URI returns the URI of the event's ActivityPub object form.
func (e *Event) URI(calendar *Calendar) string {
	return fmt.Sprintf("%s/events/%d", calendar.ActorURI(), e.ID)
}

// ActivityObject returns the event as an ActivityPub Event object.
func (e *Event) ActivityObject(calendar *Calendar) map[string]any {
	obj := map[string]any{
		"id":           e.URI(calendar),
		"type":         "Event",
		"name":         e.Name,
		"attributedTo": calendar.ActorURI(),
		"startTime":    e.StartsAt.Format(time.RFC3339),
		"endTime":      e.EndsAt.Format(time.RFC3339),
	}
	if e.Summary != "" {
		obj["summary"] = e.Summary
	}
	if e.Location != "" {
		obj["location"] = map[string]any{
			"type": "Place",
			"name": e.Location,
		}
	}
	return obj
}

func (e *Event) AfterCreate(tx *gorm.DB) error {
	return e.federate(tx, activity.TypeCreate)
}

func (e *Event) AfterUpdate(tx *gorm.DB) error {
	return e.federate(tx, activity.TypeUpdate)
}

func (e *Event) AfterDelete(tx *gorm.DB) error {
	return e.federate(tx, activity.TypeDelete)
}

func (e *Event) federate(tx *gorm.DB, typ activity.Type) error {
	calendar := e.Calendar
	if calendar == nil {
		calendar = &Calendar{}
		if err := tx.Take(calendar, "id = ?", e.CalendarID).Error; err != nil {
			return err
		}
	}
	var act *activity.Activity
	switch typ {
	case activity.TypeCreate:
		act = activity.NewCreate(calendar.ActorURI(), e.ActivityObject(calendar))
	case activity.TypeUpdate:
		act = activity.NewUpdate(calendar.ActorURI(), e.ActivityObject(calendar))
	default:
		act = activity.NewDelete(calendar.ActorURI(), e.URI(calendar))
	}
	act.To = []string{PublicAudience}
	act.CC = []string{calendar.FollowersURL()}
	return NewOutbox(tx).Add(calendar, act)
}

type Events struct {
	db *gorm.DB
}

func NewEvents(db *gorm.DB) *Events {
	return &Events{db: db}
}

// Create creates an event on the calendar.
func (e *Events) Create(calendar *Calendar, event *Event) error {
	event.ID = snowflake.Now()
	event.CalendarID = calendar.ID
	event.Calendar = calendar
	return e.db.Create(event).Error
}

// Update saves changes to an existing event.
func (e *Events) Update(event *Event) error {
	return e.db.Save(event).Error
}

// Delete removes the event.
func (e *Events) Delete(event *Event) error {
	return e.db.Delete(event).Error
}

// Find finds an event on a calendar by id.
func (e *Events) Find(calendar *Calendar, id snowflake.ID) (*Event, error) {
	var event Event
	return &event, e.db.Take(&event, "id = ? AND calendar_id = ?", id, calendar.ID).Error
}
