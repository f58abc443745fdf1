package service

import (
	"context"
	"time"

	"hostelbook/internal/clock"
	"hostelbook/internal/domain"
	"hostelbook/internal/models"
	"hostelbook/internal/slots"

	"github.com/rs/zerolog"
)

// StatusService computes the live dashboard view of a facility. The view is
// derived from bookings on every call and memoized in the status cache for a
// short TTL; writes invalidate the facility so the view lags at most one TTL.
type StatusService struct {
	repo   domain.Repository
	cache  domain.StatusCache
	clk    clock.Clock
	policy slots.Policy
	logger *zerolog.Logger
}

func NewStatusService(repo domain.Repository, cache domain.StatusCache, clk clock.Clock, policy slots.Policy, logger *zerolog.Logger) *StatusService {
	if clk == nil {
		clk = clock.System()
	}
	return &StatusService{
		repo:   repo,
		cache:  cache,
		clk:    clk,
		policy: policy,
		logger: logger,
	}
}

// ListWithStatus returns every resource of a facility category with its
// current status. Precedence: MAINTENANCE, then IN_USE, then FULLY_BOOKED,
// then AVAILABLE. SlotsLeft is reported for every row regardless of status.
func (s *StatusService) ListWithStatus(ctx context.Context, facilityID, category string) ([]models.ResourceStatus, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, facilityID, category); err != nil {
			s.logger.Warn().Err(err).Str("facility_id", facilityID).Msg("status cache read error")
		} else if cached != nil {
			return cached, nil
		}
	}

	resources := s.repo.GetResources(facilityID, category)
	if len(resources) == 0 {
		return nil, nil
	}

	now := s.clk.Now()
	active, err := s.repo.GetActiveBookingsAt(ctx, now)
	if err != nil {
		return nil, err
	}

	grid := slots.Generate(now, s.policy)
	anchor := slots.Anchor(now)
	// Считаем занятые слоты до конца суток: стартов позже полуночи не бывает.
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	booked, err := s.repo.CountBookedSlotsFrom(ctx, anchor, midnight)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.ResourceStatus, 0, len(resources))
	for _, resource := range resources {
		statuses = append(statuses, s.buildStatus(resource, now, len(grid), booked[resource.ID], active[resource.ID]))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, facilityID, category, statuses); err != nil {
			s.logger.Warn().Err(err).Str("facility_id", facilityID).Msg("status cache write error")
		}
	}
	return statuses, nil
}

func (s *StatusService) buildStatus(resource models.Resource, now time.Time, totalSlots, bookedSlots int, current *models.Booking) models.ResourceStatus {
	slotsLeft := totalSlots - bookedSlots
	if slotsLeft < 0 {
		slotsLeft = 0
	}

	status := models.ResourceStatus{
		Resource:  resource,
		SlotsLeft: slotsLeft,
	}

	switch {
	case !resource.IsOperational:
		status.LiveStatus = models.LiveMaintenance
	case current != nil && current.Covers(now):
		status.LiveStatus = models.LiveInUse
		status.CurrentUser = current.UserName
		end := current.EndTime
		status.AvailableAt = &end
	case slotsLeft == 0:
		status.LiveStatus = models.LiveFullyBooked
	default:
		status.LiveStatus = models.LiveAvailable
	}
	return status
}
