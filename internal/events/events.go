package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
	EventWaitlistJoined   = "waitlist_joined"
	EventWaitlistPromoted = "waitlist_promoted"
	EventReassignmentSkip = "reassignment_skipped"
)

// BookingEventPayload is the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID  string    `json:"booking_id"`
	ResourceID string    `json:"resource_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Status     string    `json:"status"`
}

// WaitlistEventPayload accompanies waitlist join events.
type WaitlistEventPayload struct {
	EntryID    string    `json:"entry_id"`
	FacilityID string    `json:"facility_id"`
	UserID     string    `json:"user_id"`
	Category   string    `json:"category"`
	JoinedAt   time.Time `json:"joined_at"`
}

// SkipEventPayload accompanies reassignment_skipped: the slot was freed but
// not handed over.
type SkipEventPayload struct {
	BookingID        string `json:"booking_id"`
	ResourceID       string `json:"resource_id"`
	RemainingMinutes int    `json:"remaining_minutes"`
	Reason           string `json:"reason"`
}

// PromotionEventPayload describes a waitlist promotion after a cancellation.
type PromotionEventPayload struct {
	EntryID          string    `json:"entry_id"`
	BookingID        string    `json:"booking_id"`
	ResourceID       string    `json:"resource_id"`
	UserID           string    `json:"user_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	RemainingMinutes int       `json:"remaining_minutes"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
