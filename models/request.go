package models

import "time"

// Request carries the bookkeeping shared by queued background work: how
// often it has been attempted, when, and how the last attempt failed.
type Request struct {
	ID uint32 `gorm:"primarykey;"`
	// CreatedAt is the time the request was created.
	CreatedAt time.Time
	// UpdatedAt is the time the request was last updated.
	UpdatedAt time.Time
	// Attempts is the number of times the request has been attempted.
	Attempts uint32 `gorm:"not null;default:0"`
	// LastAttempt is the time the request was last attempted.
	LastAttempt time.Time
	// LastResult is the result of the last attempt if it failed.
	LastResult string `gorm:"type:text;"`
}

// A DeliveryRequest is a pending delivery of an outbox message to one
// remote inbox. Rows exceeding the worker's attempt budget remain in the
// table as dead letters.
type DeliveryRequest struct {
	Request

	OutboxMessageID string         `gorm:"size:255;uniqueIndex:idx_delivery_message_inbox;not null"`
	OutboxMessage   *OutboxMessage `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	Inbox           string         `gorm:"size:255;uniqueIndex:idx_delivery_message_inbox;not null"`
}
