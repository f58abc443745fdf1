package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hostelbook/internal/models"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// JoinWaitlist inserts a WAITING entry. Uniqueness per (facility, user,
// category) is enforced by a partial unique index; a duplicate surfaces as
// ErrAlreadyQueued.
func (db *DB) JoinWaitlist(ctx context.Context, entry *models.WaitlistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Status = models.WaitlistWaiting
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now()
	}
	entry.JoinedAt = entry.JoinedAt.UTC()

	query := `INSERT INTO waitlist_entries (id, facility_id, user_id, user_name, category, status, joined_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		entry.ID, entry.FacilityID, entry.UserID, entry.UserName, entry.Category, entry.Status, entry.JoinedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrAlreadyQueued
		}
		return fmt.Errorf("failed to join waitlist: %w", err)
	}
	return nil
}

const waitlistColumns = `id, facility_id, user_id, user_name, category, status, joined_at`

func scanWaitlistEntry(row rowScanner) (*models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	err := row.Scan(&e.ID, &e.FacilityID, &e.UserID, &e.UserName, &e.Category, &e.Status, &e.JoinedAt)
	if err != nil {
		return nil, err
	}
	e.JoinedAt = e.JoinedAt.UTC()
	return &e, nil
}

// nextWaitingTx выбирает самую старую WAITING запись; rowid добивает ничьи
// по joined_at, поэтому порядок стабилен.
func nextWaitingTx(ctx context.Context, tx *sql.Tx, facilityID, category string) (*models.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries
              WHERE facility_id = ? AND category = ? AND status = ?
              ORDER BY joined_at ASC, rowid ASC LIMIT 1`
	row := tx.QueryRowContext(ctx, query, facilityID, category, models.WaitlistWaiting)
	entry, err := scanWaitlistEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next waiting entry: %w", err)
	}
	return entry, nil
}

func fulfilWaitlistTx(ctx context.Context, tx *sql.Tx, entryID string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = ? WHERE id = ? AND status = ?`,
		models.WaitlistFulfilled, entryID, models.WaitlistWaiting,
	)
	if err != nil {
		return fmt.Errorf("failed to fulfil waitlist entry: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrInvalidState
	}
	return nil
}

// FulfilWaitlistEntry transitions WAITING -> FULFILLED. Guarded: a non-WAITING
// entry returns ErrInvalidState instead of silently rewriting history.
func (db *DB) FulfilWaitlistEntry(ctx context.Context, entryID string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = ? WHERE id = ? AND status = ?`,
		models.WaitlistFulfilled, entryID, models.WaitlistWaiting,
	)
	if err != nil {
		return fmt.Errorf("failed to fulfil waitlist entry: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrInvalidState
	}
	return nil
}

// GetWaitlistEntry возвращает запись по ID
func (db *DB) GetWaitlistEntry(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	row := db.QueryRowContext(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries WHERE id = ?`, entryID)
	entry, err := scanWaitlistEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	return entry, nil
}

// GetUserWaitlistEntries возвращает WAITING записи пользователя
func (db *DB) GetUserWaitlistEntries(ctx context.Context, userID string) ([]*models.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries
              WHERE user_id = ? AND status = ?
              ORDER BY joined_at ASC, rowid ASC`
	rows, err := db.QueryContext(ctx, query, userID, models.WaitlistWaiting)
	if err != nil {
		return nil, fmt.Errorf("failed to get user waitlist entries: %w", err)
	}
	defer rows.Close()

	var out []*models.WaitlistEntry
	for rows.Next() {
		entry, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan waitlist entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
