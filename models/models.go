// Package models contains the persisted records of the federation core and
// the bookkeeping operations over them.
package models

import "errors"

// Errors returned by the relationship and outbox operations. Route handlers
// translate these into HTTP statuses.
var (
	// ErrInvalidIdentifier indicates a remote calendar identifier that is
	// not of the name@domain form.
	ErrInvalidIdentifier = errors.New("invalid remote calendar identifier")

	// ErrInvalidEventURL indicates an event URL that is not absolute https.
	ErrInvalidEventURL = errors.New("event url must be an absolute https url")

	// ErrNotEditor indicates the acting account has no edit rights on the
	// target calendar.
	ErrNotEditor = errors.New("account is not an editor of this calendar")

	// ErrActorMismatch indicates an attempt to publish an activity whose
	// actor is not the publishing calendar.
	ErrActorMismatch = errors.New("activity actor does not match calendar actor")
)
