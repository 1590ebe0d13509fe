package model

import "time"

// SlotLock is an advisory lock closing the read-then-decide race between two
// concurrent creation requests for overlapping windows on the same vehicle.
// The _id encodes the slot coordinates; a duplicate-key insert failure means
// another request holds the slot. Locks expire via a TTL index so a crashed
// holder cannot wedge the slot.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
