// Package snowflake provides time-ordered unique IDs for persisted records.
package snowflake

import (
	"math/rand"
	"time"
)

// ID is a 64 bit identifier whose high 48 bits encode the creation time in
// milliseconds, leaving 16 bits of randomness to avoid collisions within the
// same millisecond.
type ID uint64

// Now returns an ID for the current time.
func Now() ID {
	return TimeToID(time.Now())
}

// TimeToID converts a time.Time to an ID.
func TimeToID(ts time.Time) ID {
	return ID(uint64(ts.UnixNano()/int64(time.Millisecond))<<16 | uint64(rand.Intn(1<<16)))
}

// ToTime converts an ID back to the time it was created.
func (id ID) ToTime() time.Time {
	return time.Unix(0, int64(id>>16)*1e6)
}
