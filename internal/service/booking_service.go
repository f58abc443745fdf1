package service

import (
	"context"
	"errors"
	"time"

	"hostelbook/internal/clock"
	"hostelbook/internal/database"
	"hostelbook/internal/domain"
	"hostelbook/internal/events"
	"hostelbook/internal/metrics"
	"hostelbook/internal/models"
	"hostelbook/internal/slots"

	"github.com/rs/zerolog"
)

// SlotView is one grid window annotated with its availability for a resource.
type SlotView struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

type BookingService struct {
	repo             domain.Repository
	eventBus         domain.EventPublisher
	notifyWorker     domain.NotifyWorker
	statusCache      domain.StatusCache
	clk              clock.Clock
	policy           slots.Policy
	minUsableMinutes int
	logger           *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, notifyWorker domain.NotifyWorker, statusCache domain.StatusCache, clk clock.Clock, policy slots.Policy, minUsableMinutes int, logger *zerolog.Logger) *BookingService {
	if clk == nil {
		clk = clock.System()
	}
	if policy.SlotMinutes <= 0 {
		policy.SlotMinutes = models.DefaultSlotMinutes
	}
	if policy.SlotCount <= 0 {
		policy.SlotCount = models.DefaultSlotCount
	}
	if policy.ClosingHour <= 0 {
		policy.ClosingHour = models.DefaultClosingHour
	}
	if minUsableMinutes <= 0 {
		minUsableMinutes = models.DefaultMinimumUsableMinutes
	}
	return &BookingService{
		repo:             repo,
		eventBus:         eventBus,
		notifyWorker:     notifyWorker,
		statusCache:      statusCache,
		clk:              clk,
		policy:           policy,
		minUsableMinutes: minUsableMinutes,
		logger:           logger,
	}
}

// ValidateWindow rejects windows that start in the past or do not match the
// generated grid for the rest of the day. Reassignment inserts bypass this on
// purpose: a promoted booking starts mid-slot.
func (s *BookingService) ValidateWindow(start, end time.Time) error {
	now := s.clk.Now()
	if start.Before(now) {
		return database.ErrPastSlot
	}
	grid := slots.Generate(now, s.policy)
	if !slots.Contains(grid, start, end) {
		return database.ErrOffGrid
	}
	return nil
}

// CreateBooking validates the requested window and commits it atomically.
// ErrSlotTaken passes through untouched so the transport can offer the
// waitlist instead.
func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := s.ValidateWindow(booking.StartTime, booking.EndTime); err != nil {
		metrics.IncBooking("rejected")
		return err
	}

	started := time.Now()
	err := s.repo.BookSlot(ctx, booking)
	metrics.ObserveBookingDuration(time.Since(started))
	if err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncBooking("conflict")
		} else {
			metrics.IncBooking("error")
		}
		return err
	}
	metrics.IncBooking("created")

	s.invalidateStatus(ctx, booking.ResourceID)
	s.publishBookingEvent(events.EventBookingCreated, booking)
	s.enqueueNotification(ctx, "booking_created", booking.UserID, booking)

	return nil
}

// CancelBooking runs the cancellation and reassignment flow and fans out the
// resulting events and notifications.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*models.CancelResult, error) {
	result, err := s.repo.CancelAndReassign(ctx, bookingID, s.clk.Now(), s.minUsableMinutes)
	if err != nil {
		return nil, err
	}
	metrics.IncCancellation(string(result.Outcome))

	cancelled, err := s.repo.GetBooking(ctx, bookingID)
	if err == nil {
		s.publishBookingEvent(events.EventBookingCancelled, cancelled)
		s.invalidateStatus(ctx, cancelled.ResourceID)
	}

	switch result.Outcome {
	case models.OutcomeReassigned:
		s.publishPromotion(result)
		if result.Promoted != nil {
			s.enqueueNotification(ctx, "waitlist_promoted", result.Promoted.UserID, result.Promoted)
		}
	case models.OutcomeTooShort:
		if cancelled != nil {
			s.publishSkip(cancelled, result.RemainingMinutes)
		}
	}

	return result, nil
}

// ListSlots returns the slot grid for one resource with taken windows marked.
func (s *BookingService) ListSlots(ctx context.Context, resourceID string) ([]SlotView, error) {
	resource, ok := s.repo.GetResource(resourceID)
	if !ok || !resource.IsOperational {
		return nil, database.ErrResourceUnavailable
	}

	now := s.clk.Now()
	grid := slots.Generate(now, s.policy)
	if len(grid) == 0 {
		return nil, nil
	}

	until := grid[len(grid)-1].EndTime
	booked, err := s.repo.GetBookedStartTimes(ctx, resourceID, slots.Anchor(now), until)
	if err != nil {
		return nil, err
	}
	taken := make(map[time.Time]bool, len(booked))
	for _, t := range booked {
		taken[t.UTC()] = true
	}

	out := make([]SlotView, 0, len(grid))
	for _, slot := range grid {
		out = append(out, SlotView{
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Available: !taken[slot.StartTime.UTC()],
		})
	}
	return out, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error) {
	return s.repo.GetUserBookings(ctx, userID, s.clk.Now())
}

func (s *BookingService) invalidateStatus(ctx context.Context, resourceID string) {
	if s.statusCache == nil {
		return
	}
	resource, ok := s.repo.GetResource(resourceID)
	if !ok {
		return
	}
	if err := s.statusCache.Invalidate(ctx, resource.FacilityID); err != nil {
		s.logger.Warn().Err(err).Str("facility_id", resource.FacilityID).Msg("status cache invalidate error")
	}
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil || booking == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		ResourceID: booking.ResourceID,
		UserID:     booking.UserID,
		UserName:   booking.UserName,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		Status:     booking.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) publishPromotion(result *models.CancelResult) {
	if s.eventBus == nil || result.Promoted == nil || result.PromotedEntry == nil {
		return
	}

	payload := events.PromotionEventPayload{
		EntryID:          result.PromotedEntry.ID,
		BookingID:        result.Promoted.ID,
		ResourceID:       result.Promoted.ResourceID,
		UserID:           result.Promoted.UserID,
		StartTime:        result.Promoted.StartTime,
		EndTime:          result.Promoted.EndTime,
		RemainingMinutes: result.RemainingMinutes,
	}

	if err := s.eventBus.PublishJSON(events.EventWaitlistPromoted, payload); err != nil {
		s.logger.Error().Err(err).Str("booking_id", result.Promoted.ID).Msg("publish promotion event error")
	}
}

func (s *BookingService) publishSkip(booking *models.Booking, remaining int) {
	if s.eventBus == nil {
		return
	}

	payload := events.SkipEventPayload{
		BookingID:        booking.ID,
		ResourceID:       booking.ResourceID,
		RemainingMinutes: remaining,
		Reason:           string(models.OutcomeTooShort),
	}

	if err := s.eventBus.PublishJSON(events.EventReassignmentSkip, payload); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("publish skip event error")
	}
}

func (s *BookingService) enqueueNotification(ctx context.Context, taskType, userID string, payload interface{}) {
	if s.notifyWorker == nil {
		return
	}
	if err := s.notifyWorker.EnqueueNotification(ctx, taskType, userID, payload); err != nil {
		s.logger.Error().Err(err).Str("task", taskType).Str("user_id", userID).Msg("notify enqueue error")
	}
}
