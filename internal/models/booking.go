package models

import "time"

// Booking is a confirmed reservation of one resource for the half-open
// interval [StartTime, EndTime).
type Booking struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Status     string    `json:"status"` // CONFIRMED, ACTIVE, CANCELLED, COMPLETED
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EffectiveStatus derives the status as of now. Completion is inferred from
// the end time at read, there is no background sweep that flips rows.
func (b *Booking) EffectiveStatus(now time.Time) string {
	if b.Status == BookingConfirmed || b.Status == BookingActive {
		if !b.EndTime.After(now) {
			return BookingCompleted
		}
	}
	return b.Status
}

// Covers reports whether the booking interval contains the given instant.
func (b *Booking) Covers(now time.Time) bool {
	return !b.StartTime.After(now) && b.EndTime.After(now)
}

// Overlaps reports half-open interval overlap with [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}
