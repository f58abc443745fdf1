package clock

import "time"

// Clock abstracts the single source of "now" so threshold and slot-boundary
// logic can be tested against fixed instants.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

// Fixed is a Clock pinned to a settable instant.
type Fixed struct {
	t time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{t: t} }

func (f *Fixed) Now() time.Time { return f.t }

// Set moves the fixed clock to a new instant.
func (f *Fixed) Set(t time.Time) { f.t = t }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.t = f.t.Add(d) }
