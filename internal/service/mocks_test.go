package service

import (
	"context"
	"time"

	"hostelbook/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) UpsertResources(ctx context.Context, resources []models.Resource) error {
	return m.Called(ctx, resources).Error(0)
}
func (m *mockRepo) SetResources(resources []models.Resource) { m.Called(resources) }
func (m *mockRepo) GetResource(resourceID string) (models.Resource, bool) {
	args := m.Called(resourceID)
	return args.Get(0).(models.Resource), args.Bool(1)
}
func (m *mockRepo) GetResources(facilityID, category string) []models.Resource {
	args := m.Called(facilityID, category)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Resource)
}
func (m *mockRepo) BookSlot(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) CancelAndReassign(ctx context.Context, id string, now time.Time, minUsable int) (*models.CancelResult, error) {
	args := m.Called(ctx, id, now, minUsable)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CancelResult), args.Error(1)
}
func (m *mockRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetActiveBookingsAt(ctx context.Context, now time.Time) (map[string]*models.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*models.Booking), args.Error(1)
}
func (m *mockRepo) CountBookedSlotsFrom(ctx context.Context, from, until time.Time) (map[string]int, error) {
	args := m.Called(ctx, from, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}
func (m *mockRepo) GetBookedStartTimes(ctx context.Context, resourceID string, from, until time.Time) ([]time.Time, error) {
	args := m.Called(ctx, resourceID, from, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}
func (m *mockRepo) GetUserBookings(ctx context.Context, userID string, now time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetFacilityBookings(ctx context.Context, facilityID string, from, until time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, facilityID, from, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) JoinWaitlist(ctx context.Context, e *models.WaitlistEntry) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockRepo) FulfilWaitlistEntry(ctx context.Context, entryID string) error {
	return m.Called(ctx, entryID).Error(0)
}
func (m *mockRepo) GetWaitlistEntry(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaitlistEntry), args.Error(1)
}
func (m *mockRepo) GetUserWaitlistEntries(ctx context.Context, userID string) ([]*models.WaitlistEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WaitlistEntry), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockNotifyWorker struct {
	mock.Mock
}

func (m *mockNotifyWorker) EnqueueNotification(ctx context.Context, taskType, userID string, payload interface{}) error {
	return m.Called(ctx, taskType, userID, payload).Error(0)
}

type mockStatusCache struct {
	mock.Mock
}

func (m *mockStatusCache) Get(ctx context.Context, facilityID, category string) ([]models.ResourceStatus, error) {
	args := m.Called(ctx, facilityID, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ResourceStatus), args.Error(1)
}
func (m *mockStatusCache) Set(ctx context.Context, facilityID, category string, statuses []models.ResourceStatus) error {
	return m.Called(ctx, facilityID, category, statuses).Error(0)
}
func (m *mockStatusCache) Invalidate(ctx context.Context, facilityID string) error {
	return m.Called(ctx, facilityID).Error(0)
}
func (m *mockStatusCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}
