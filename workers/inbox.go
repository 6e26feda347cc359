package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/convene-events/convene/internal/activity"
	"github.com/convene-events/convene/models"
	"gorm.io/gorm"
)

// NewInboxWorker returns a loop that drains queued inbox messages: follows
// are recorded and confirmed, accepts settle the calendar's own follows, and
// undos retract the sending actor's follow. A message that fails with a
// transient error stays queued and is retried on the next pass.
func NewInboxWorker(db *gorm.DB, log *slog.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		log.Info("inbox worker started")
		defer log.Info("inbox worker stopped")

		db := db.WithContext(ctx)
		for {
			if err := processInbox(db, log); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
				// continue
			}
		}
	}
}

func processInbox(db *gorm.DB, log *slog.Logger) error {
	inboxes := models.NewInboxes(db)
	messages, err := inboxes.Unprocessed(100)
	if err != nil {
		return err
	}
	for i := range messages {
		message := &messages[i]
		if err := processInboxMessage(db, log, message); err != nil {
			log.Error("inbox message failed", "activity_id", message.ActivityID, "type", message.ActivityType, "error", err.Error())
			continue
		}
		if err := inboxes.MarkProcessed(message); err != nil {
			return err
		}
	}
	return nil
}

func processInboxMessage(db *gorm.DB, log *slog.Logger, message *models.InboxMessage) error {
	calendar, err := models.NewCalendars(db).FindByID(message.CalendarID)
	if err != nil {
		return err
	}
	act, ok := activity.FromObject(message.Activity)
	if !ok {
		// should not happen, the handler validated the shape on ingest
		return fmt.Errorf("malformed queued activity %q", message.ActivityID)
	}

	switch act.Type {
	case activity.TypeFollow:
		return acceptFollow(db, calendar, act)
	case activity.TypeAccept:
		return models.NewFollows(db).Confirm(calendar, act.Actor, act.Object.ID())
	case activity.TypeUndo:
		return models.NewFollows(db).Undo(calendar, act.Actor, act.Object.ID())
	case activity.TypeAnnounce:
		log.Info("announce received", "calendar", calendar.ActorURI(), "actor", act.Actor, "object", act.Object.ID())
		return nil
	default:
		log.Info("no handler for queued activity", "type", act.Type.String(), "activity_id", act.ID)
		return nil
	}
}

// acceptFollow records the follower and confirms the follow to its sender.
// Re-delivery of a follow already on file does not publish a second Accept.
func acceptFollow(db *gorm.DB, calendar *models.Calendar, follow *activity.Activity) error {
	return db.Transaction(func(tx *gorm.DB) error {
		created, err := models.NewFollows(tx).Accept(calendar, follow)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}
		accept := activity.NewAccept(calendar.ActorURI(), follow.ID)
		return models.NewOutbox(tx).Add(calendar, accept)
	})
}
