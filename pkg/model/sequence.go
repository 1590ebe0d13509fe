package model

// SequenceCounter is the single shared counter backing public booking
// identifiers. It is created once at deployment, never deleted, and only
// ever mutated through an atomic increment-and-return (or the optimistic
// compare-and-swap fallback). The value is global and is deliberately not
// reset per calendar day.
type SequenceCounter struct {
	ID           string `bson:"_id" json:"id"`
	CurrentValue int64  `bson:"current_value" json:"current_value"`
}

// SequenceCounterID is the _id of the singleton counter document.
const SequenceCounterID = "booking_sequence"
