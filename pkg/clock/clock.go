package clock

import "time"

// IST is the fixed business calendar for the rental fleet. A fixed offset is
// deliberate: India does not observe DST, so no tz database rules are needed.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Clock abstracts "now" so time-sensitive logic (conflict checks, refund
// tiers, reminder windows) can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func New() Clock { return realClock{} }

// Fixed returns a clock frozen at t, for tests.
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }
