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

	"github.com/rs/zerolog"
)

// QueueSnapshot is the "my queue" view: live future bookings plus standing
// waitlist entries for one user.
type QueueSnapshot struct {
	Bookings        []*models.Booking       `json:"bookings"`
	WaitlistEntries []*models.WaitlistEntry `json:"waitlist_entries"`
}

type WaitlistService struct {
	repo        domain.Repository
	eventBus    domain.EventPublisher
	statusCache domain.StatusCache
	clk         clock.Clock
	logger      *zerolog.Logger
}

func NewWaitlistService(repo domain.Repository, eventBus domain.EventPublisher, statusCache domain.StatusCache, clk clock.Clock, logger *zerolog.Logger) *WaitlistService {
	if clk == nil {
		clk = clock.System()
	}
	return &WaitlistService{
		repo:        repo,
		eventBus:    eventBus,
		statusCache: statusCache,
		clk:         clk,
		logger:      logger,
	}
}

// Join puts the user at the tail of the facility/category queue. A second
// WAITING entry for the same triple is rejected with ErrAlreadyQueued.
// Joins are throttled per user with a fixed window shared through the
// status cache, so the limit holds across processes when redis is up.
func (s *WaitlistService) Join(ctx context.Context, entry *models.WaitlistEntry) error {
	if entry.UserID == "" || entry.FacilityID == "" || entry.Category == "" {
		metrics.IncWaitlist("rejected")
		return database.ErrMissingFields
	}
	if err := s.checkJoinLimit(ctx, entry.UserID); err != nil {
		return err
	}
	entry.JoinedAt = s.clk.Now()

	if err := s.repo.JoinWaitlist(ctx, entry); err != nil {
		if errors.Is(err, database.ErrAlreadyQueued) {
			metrics.IncWaitlist("duplicate")
		} else {
			metrics.IncWaitlist("error")
		}
		return err
	}
	metrics.IncWaitlist("joined")

	s.publishJoin(entry)
	return nil
}

// Fulfil transitions an entry WAITING -> FULFILLED outside of the
// reassignment path (manual fulfilment by an operator).
func (s *WaitlistService) Fulfil(ctx context.Context, entryID string) error {
	return s.repo.FulfilWaitlistEntry(ctx, entryID)
}

func (s *WaitlistService) GetEntry(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	return s.repo.GetWaitlistEntry(ctx, entryID)
}

// GetQueue collects everything the user currently holds or waits for.
func (s *WaitlistService) GetQueue(ctx context.Context, userID string) (*QueueSnapshot, error) {
	bookings, err := s.repo.GetUserBookings(ctx, userID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.GetUserWaitlistEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &QueueSnapshot{Bookings: bookings, WaitlistEntries: entries}, nil
}

func (s *WaitlistService) checkJoinLimit(ctx context.Context, userID string) error {
	if s.statusCache == nil {
		return nil
	}

	window := time.Duration(models.DefaultWaitlistJoinWindowSeconds) * time.Second
	allowed, err := s.statusCache.CheckRateLimit(ctx, "waitlist_join:"+userID, models.DefaultWaitlistJoinLimit, window)
	if err != nil {
		// Throttling is best-effort: a broken limiter must not block joins.
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("waitlist join rate limit check failed")
		return nil
	}
	if !allowed {
		metrics.IncWaitlist("throttled")
		return database.ErrRateLimited
	}
	return nil
}

func (s *WaitlistService) publishJoin(entry *models.WaitlistEntry) {
	if s.eventBus == nil {
		return
	}

	payload := events.WaitlistEventPayload{
		EntryID:    entry.ID,
		FacilityID: entry.FacilityID,
		UserID:     entry.UserID,
		Category:   entry.Category,
		JoinedAt:   entry.JoinedAt,
	}

	if err := s.eventBus.PublishJSON(events.EventWaitlistJoined, payload); err != nil {
		s.logger.Error().Err(err).Str("entry_id", entry.ID).Msg("publish waitlist event error")
	}
}
