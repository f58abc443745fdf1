package models

import "time"

// WaitlistEntry is a standing request for the next freed slot of a resource
// category within one facility. A user holds at most one WAITING entry per
// (facility, category) pair.
type WaitlistEntry struct {
	ID         string    `json:"id"`
	FacilityID string    `json:"facility_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Category   string    `json:"category"`
	Status     string    `json:"status"` // WAITING, FULFILLED, EXPIRED
	JoinedAt   time.Time `json:"joined_at"`
}

// CancelOutcome tells the caller what happened after a cancellation.
type CancelOutcome string

const (
	// OutcomeTooShort остаток слота меньше порога, лист ожидания не трогали
	OutcomeTooShort CancelOutcome = "remainder_too_short"
	// OutcomeNobodyWaiting лист ожидания пуст
	OutcomeNobodyWaiting CancelOutcome = "nobody_waiting"
	// OutcomeReassigned слот передан следующему в очереди
	OutcomeReassigned CancelOutcome = "reassigned"
)

// CancelResult is returned by the cancellation coordinator.
type CancelResult struct {
	Outcome          CancelOutcome  `json:"outcome"`
	Message          string         `json:"message"`
	RemainingMinutes int            `json:"remaining_minutes"`
	Promoted         *Booking       `json:"promoted_booking,omitempty"`
	PromotedEntry    *WaitlistEntry `json:"promoted_entry,omitempty"`
}
