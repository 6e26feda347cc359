package models

import (
	"net/url"
	"time"

	"github.com/convene-events/convene/internal/activity"
	"github.com/convene-events/convene/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A SharedEvent records that a local calendar has announced a remote event.
// Keyed by the id of the Announce activity; at most one active share per
// (event url, calendar), enforced by the unique index.
type SharedEvent struct {
	ID         snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt  time.Time
	ActivityID string       `gorm:"size:255;uniqueIndex;not null"`
	CalendarID snowflake.ID `gorm:"uniqueIndex:idx_share_key;not null"`
	Calendar   *Calendar    `gorm:"constraint:OnDelete:CASCADE;<-:create;"`
	EventURL   string       `gorm:"size:255;uniqueIndex:idx_share_key;not null"`
}

type Shares struct {
	db *gorm.DB
}

func NewShares(db *gorm.DB) *Shares {
	return &Shares{db: db}
}

// Share announces the remote event on the calendar. The acting account must
// be an editor of the calendar, and the event URL must be absolute https;
// neither violation creates a row or publishes an activity. Sharing an
// already shared event is a no-op.
func (s *Shares) Share(account *Account, calendar *Calendar, eventURL string) error {
	if err := s.authorize(account, calendar); err != nil {
		return err
	}
	if !validEventURL(eventURL) {
		return ErrInvalidEventURL
	}
	announce := activity.NewAnnounce(calendar.ActorURI(), eventURL)
	share := &SharedEvent{
		ID:         snowflake.Now(),
		ActivityID: announce.ID,
		CalendarID: calendar.ID,
		EventURL:   eventURL,
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(share)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// already shared
			return nil
		}
		return NewOutbox(tx).Add(calendar, announce)
	})
}

// Unshare withdraws every share of the event URL held by the calendar,
// publishing an Undo of each share's Announce.
func (s *Shares) Unshare(account *Account, calendar *Calendar, eventURL string) error {
	if err := s.authorize(account, calendar); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var shares []SharedEvent
		if err := tx.Where("event_url = ? AND calendar_id = ?", eventURL, calendar.ID).Find(&shares).Error; err != nil {
			return err
		}
		outbox := NewOutbox(tx)
		for _, share := range shares {
			undo := activity.NewUndo(calendar.ActorURI(), share.ActivityID)
			if err := outbox.Add(calendar, undo); err != nil {
				return err
			}
			if err := tx.Delete(&SharedEvent{}, "id = ?", share.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Shares) authorize(account *Account, calendar *Calendar) error {
	editor, err := NewCalendars(s.db).IsEditor(calendar, account)
	if err != nil {
		return err
	}
	if !editor {
		return ErrNotEditor
	}
	return nil
}

func validEventURL(eventURL string) bool {
	u, err := url.Parse(eventURL)
	return err == nil && u.Scheme == "https" && u.Host != ""
}
