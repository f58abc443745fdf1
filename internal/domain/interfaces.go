package domain

import (
	"context"
	"time"

	"hostelbook/internal/models"
)

// Repository is the storage surface the services build on.
type Repository interface {
	// Ресурсы
	UpsertResources(ctx context.Context, resources []models.Resource) error
	SetResources(resources []models.Resource)
	GetResource(resourceID string) (models.Resource, bool)
	GetResources(facilityID, category string) []models.Resource

	// Бронирования
	BookSlot(ctx context.Context, booking *models.Booking) error
	CancelAndReassign(ctx context.Context, bookingID string, now time.Time, minUsableMinutes int) (*models.CancelResult, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetActiveBookingsAt(ctx context.Context, now time.Time) (map[string]*models.Booking, error)
	CountBookedSlotsFrom(ctx context.Context, from, until time.Time) (map[string]int, error)
	GetBookedStartTimes(ctx context.Context, resourceID string, from, until time.Time) ([]time.Time, error)
	GetUserBookings(ctx context.Context, userID string, now time.Time) ([]*models.Booking, error)
	GetFacilityBookings(ctx context.Context, facilityID string, from, until time.Time) ([]*models.Booking, error)

	// Лист ожидания
	JoinWaitlist(ctx context.Context, entry *models.WaitlistEntry) error
	FulfilWaitlistEntry(ctx context.Context, entryID string) error
	GetWaitlistEntry(ctx context.Context, entryID string) (*models.WaitlistEntry, error)
	GetUserWaitlistEntries(ctx context.Context, userID string) ([]*models.WaitlistEntry, error)
}

// StatusCache holds the computed live status view for a short TTL. Writes to
// a facility invalidate its entries so readers never see a stale booking for
// longer than one TTL.
type StatusCache interface {
	Get(ctx context.Context, facilityID, category string) ([]models.ResourceStatus, error)
	Set(ctx context.Context, facilityID, category string, statuses []models.ResourceStatus) error
	Invalidate(ctx context.Context, facilityID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher delivers domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier is the external delivery collaborator. Only the trigger pipeline
// lives in this core; delivery mechanics stay behind this interface.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// NotifyWorker accepts notification jobs for asynchronous delivery.
type NotifyWorker interface {
	EnqueueNotification(ctx context.Context, taskType, userID string, payload interface{}) error
}
