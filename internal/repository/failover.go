package repository

import (
	"context"
	"sync/atomic"
	"time"

	"hostelbook/internal/domain"
	"hostelbook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStatusCache serves from redis while it is healthy and degrades to
// the in-memory cache on errors, probing the primary again after a minute.
type FailoverStatusCache struct {
	primary   domain.StatusCache
	fallback  domain.StatusCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos
}

func NewFailoverStatusCache(primary, fallback domain.StatusCache, logger *zerolog.Logger) *FailoverStatusCache {
	return &FailoverStatusCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverStatusCache) markDown(err error) {
	f.logger.Error().Err(err).Msg("primary status cache failed, falling back to memory")
	f.isDown.Store(true)
	f.lastCheck.Store(time.Now().UnixNano())
}

func (f *FailoverStatusCache) shouldProbe() bool {
	return time.Since(time.Unix(0, f.lastCheck.Load())) > time.Minute
}

func (f *FailoverStatusCache) Get(ctx context.Context, facilityID, category string) ([]models.ResourceStatus, error) {
	if !f.isDown.Load() {
		statuses, err := f.primary.Get(ctx, facilityID, category)
		if err == nil {
			return statuses, nil
		}
		f.markDown(err)
	} else if f.shouldProbe() {
		statuses, err := f.primary.Get(ctx, facilityID, category)
		if err == nil {
			f.isDown.Store(false)
			return statuses, nil
		}
		f.lastCheck.Store(time.Now().UnixNano())
	}

	return f.fallback.Get(ctx, facilityID, category)
}

func (f *FailoverStatusCache) Set(ctx context.Context, facilityID, category string, statuses []models.ResourceStatus) error {
	if !f.isDown.Load() {
		err := f.primary.Set(ctx, facilityID, category, statuses)
		if err == nil {
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.Set(ctx, facilityID, category, statuses)
}

func (f *FailoverStatusCache) Invalidate(ctx context.Context, facilityID string) error {
	// Сбрасываем в обоих, чтобы после восстановления редиса не ожил
	// устаревший статус.
	var primaryErr error
	if !f.isDown.Load() {
		if primaryErr = f.primary.Invalidate(ctx, facilityID); primaryErr != nil {
			f.markDown(primaryErr)
		}
	}
	return f.fallback.Invalidate(ctx, facilityID)
}

func (f *FailoverStatusCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !f.isDown.Load() {
		ok, err := f.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return ok, nil
		}
		f.markDown(err)
	}
	return f.fallback.CheckRateLimit(ctx, key, limit, window)
}
