package slots

import "time"

// Slot is one bookable time window. Slots are derived on every read and never
// persisted, so the grid can not go stale.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Policy holds the slot grid parameters for a facility day.
type Policy struct {
	SlotMinutes int // window length
	SlotCount   int // upper bound of windows per day
	ClosingHour int // windows starting at this hour or later are not issued
}

// Generate produces the canonical slot grid for the rest of the day.
// The anchor is now rounded up to the next full hour; generation stops at
// the closing boundary and never crosses into the next day, so an instant
// past the boundary yields an empty grid. Pure function of now: same
// instant, same grid.
func Generate(now time.Time, p Policy) []Slot {
	if p.SlotMinutes <= 0 || p.SlotCount <= 0 {
		return nil
	}

	start := Anchor(now)
	dur := time.Duration(p.SlotMinutes) * time.Minute

	var out []Slot
	for i := 0; i < p.SlotCount; i++ {
		slotStart := start.Add(time.Duration(i) * dur)
		if slotStart.Day() != now.Day() || slotStart.Hour() >= p.ClosingHour {
			break
		}
		out = append(out, Slot{StartTime: slotStart, EndTime: slotStart.Add(dur)})
	}
	return out
}

// Anchor rounds now up to the next full hour. An instant already on the hour
// is its own anchor.
func Anchor(now time.Time) time.Time {
	start := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	if start.Before(now) {
		start = start.Add(time.Hour)
	}
	return start
}

// Contains reports whether the window [start, end) is one of the generated
// slots. Used to validate that free-form requests stay on the grid.
func Contains(grid []Slot, start, end time.Time) bool {
	for _, s := range grid {
		if s.StartTime.Equal(start) && s.EndTime.Equal(end) {
			return true
		}
	}
	return false
}
