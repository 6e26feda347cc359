package models

import (
	"errors"
	"time"

	"github.com/convene-events/convene/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A RemoteActor is a cached profile of an actor hosted elsewhere, recorded
// the first time it makes signed contact or is resolved for delivery.
type RemoteActor struct {
	ID             snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	URI            string `gorm:"size:255;uniqueIndex;not null"`
	Type           string `gorm:"size:16;not null"`
	InboxURL       string `gorm:"size:255"`
	SharedInboxURL string `gorm:"size:255"`
	OutboxURL      string `gorm:"size:255"`
	PublicKey      []byte
}

// Inbox returns the actor's inbox URL, preferring the shared inbox when the
// actor publishes one.
func (a *RemoteActor) Inbox() string {
	if a.SharedInboxURL != "" {
		return a.SharedInboxURL
	}
	return a.InboxURL
}

type RemoteActors struct {
	db *gorm.DB
}

func NewRemoteActors(db *gorm.DB) *RemoteActors {
	return &RemoteActors{db: db}
}

// FindByURI returns the cached actor with the given URI.
func (a *RemoteActors) FindByURI(uri string) (*RemoteActor, error) {
	var actor RemoteActor
	return &actor, a.db.Take(&actor, "uri = ?", uri).Error
}

// FindOrCreate returns the cached actor with the given URI, calling fetch
// to dereference and cache it on a miss.
func (a *RemoteActors) FindOrCreate(uri string, fetch func(string) (*RemoteActor, error)) (*RemoteActor, error) {
	actor, err := a.FindByURI(uri)
	if err == nil {
		return actor, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	actor, err = fetch(uri)
	if err != nil {
		return nil, err
	}
	if err := a.Save(actor); err != nil {
		return nil, err
	}
	return actor, nil
}

// Save upserts the actor by URI, refreshing a stale cache entry in place.
func (a *RemoteActors) Save(actor *RemoteActor) error {
	return a.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uri"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "type", "inbox_url", "shared_inbox_url", "outbox_url", "public_key",
		}),
	}).Create(actor).Error
}
