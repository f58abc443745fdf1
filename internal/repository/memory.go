package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"hostelbook/internal/models"
)

// MemoryStatusCache is the in-process fallback for the status cache.
type MemoryStatusCache struct {
	entries    sync.Map // map[string]*memoryEntry
	rateLimits sync.Map // map[string]*rateLimitEntry
	ttl        time.Duration
}

type memoryEntry struct {
	statuses  []models.ResourceStatus
	expiresAt time.Time
}

func NewMemoryStatusCache(ttl time.Duration) *MemoryStatusCache {
	return &MemoryStatusCache{ttl: ttl}
}

func (m *MemoryStatusCache) Get(ctx context.Context, facilityID, category string) ([]models.ResourceStatus, error) {
	val, ok := m.entries.Load(statusKey(facilityID, category))
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		m.entries.Delete(statusKey(facilityID, category))
		return nil, nil
	}
	return entry.statuses, nil
}

func (m *MemoryStatusCache) Set(ctx context.Context, facilityID, category string, statuses []models.ResourceStatus) error {
	m.entries.Store(statusKey(facilityID, category), &memoryEntry{
		statuses:  statuses,
		expiresAt: time.Now().Add(m.ttl),
	})
	return nil
}

func (m *MemoryStatusCache) Invalidate(ctx context.Context, facilityID string) error {
	prefix := "facility_status:" + facilityID + ":"
	m.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			m.entries.Delete(key)
		}
		return true
	})
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (m *MemoryStatusCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := m.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	m.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
