package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hostelbook/internal/models"
)

// UpsertResources записывает ресурсы из конфигурации в БД и обновляет кэш.
// Ядро бронирования дальше читает ресурсы только отсюда.
func (db *DB) UpsertResources(ctx context.Context, resources []models.Resource) error {
	query := `INSERT INTO resources (id, facility_id, name, category, is_operational, sort_order, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  facility_id = excluded.facility_id,
                  name = excluded.name,
                  category = excluded.category,
                  is_operational = excluded.is_operational,
                  sort_order = excluded.sort_order,
                  updated_at = excluded.updated_at`

	now := time.Now().UTC()
	for _, r := range resources {
		if _, err := db.ExecContext(ctx, query,
			r.ID, r.FacilityID, r.Name, r.Category, r.IsOperational, r.SortOrder, now, now,
		); err != nil {
			return fmt.Errorf("failed to upsert resource %s: %w", r.ID, err)
		}
	}

	db.SetResources(resources)
	return nil
}

// SetResources обновляет кэш ресурсов для проверок доступности
func (db *DB) SetResources(resources []models.Resource) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.resourcesCache = make(map[string]models.Resource, len(resources))
	for _, r := range resources {
		db.resourcesCache[r.ID] = r
	}
}

// GetResource returns a resource from the cache.
func (db *DB) GetResource(resourceID string) (models.Resource, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	r, ok := db.resourcesCache[resourceID]
	return r, ok
}

// GetResources returns cached resources for a facility, optionally filtered
// by category, in stable sort order.
func (db *DB) GetResources(facilityID, category string) []models.Resource {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []models.Resource
	for _, r := range db.resourcesCache {
		if r.FacilityID != facilityID {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder == out[j].SortOrder {
			return out[i].ID < out[j].ID
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}
