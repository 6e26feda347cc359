package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/convene-events/convene/activitypub"
	"github.com/convene-events/convene/models"
	"gorm.io/gorm"
)

// NewDeliveryWorker returns a loop that delivers queued outbox messages to
// their destination inboxes, signed as the publishing calendar. A delivery
// that keeps failing stops being retried once its attempt budget is spent;
// the row remains as a dead letter.
func NewDeliveryWorker(db *gorm.DB, log *slog.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		log.Info("delivery worker started")
		defer log.Info("delivery worker stopped")

		db := db.WithContext(ctx)
		for {
			if err := process(db, deliveryRequestScope, processDeliveryRequest); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(30 * time.Second):
				// continue
			}
		}
	}
}

func deliveryRequestScope(db *gorm.DB) *gorm.DB {
	return db.Preload("OutboxMessage").Preload("OutboxMessage.Calendar").Where("attempts < 3")
}

func processDeliveryRequest(db *gorm.DB, request *models.DeliveryRequest) error {
	calendar := request.OutboxMessage.Calendar
	client, err := activitypub.NewClient(calendar)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(db.Statement.Context, 10*time.Second)
	defer cancel()
	return client.Post(ctx, request.Inbox, request.OutboxMessage.Activity)
}
