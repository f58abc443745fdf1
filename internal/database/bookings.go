package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"hostelbook/internal/models"

	"github.com/google/uuid"
)

const liveStatuses = `'CONFIRMED', 'ACTIVE'`

// BookSlot commits a reservation for one resource/time-window pair. The
// per-resource lock plus a single transaction guarantee that of two
// concurrent calls for the same window exactly one inserts and the other
// observes the committed row and gets ErrSlotTaken.
func (db *DB) BookSlot(ctx context.Context, booking *models.Booking) error {
	resource, ok := db.GetResource(booking.ResourceID)
	if !ok || !resource.IsOperational {
		return ErrResourceUnavailable
	}

	unlock := db.lockResource(booking.ResourceID)
	defer unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	start := booking.StartTime.UTC()
	end := booking.EndTime.UTC()

	// Настоящая проверка пересечения полуоткрытых интервалов, а не только
	// равенство начала: сеточные брони она покрывает как частный случай.
	queryCount := `SELECT COUNT(*) FROM bookings
                   WHERE resource_id = ? AND status IN (` + liveStatuses + `)
                   AND start_time < ? AND end_time > ?`
	var conflicts int
	if err := tx.QueryRowContext(ctx, queryCount, booking.ResourceID, end, start).Scan(&conflicts); err != nil {
		return fmt.Errorf("failed to check slot conflicts in tx: %w", err)
	}
	if conflicts > 0 {
		return ErrSlotTaken
	}

	if err := insertBookingTx(ctx, tx, booking, start, end); err != nil {
		return err
	}

	return tx.Commit()
}

func insertBookingTx(ctx context.Context, tx *sql.Tx, booking *models.Booking, start, end time.Time) error {
	now := time.Now().UTC()
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	booking.Status = models.BookingConfirmed
	booking.StartTime = start
	booking.EndTime = end
	booking.CreatedAt = now
	booking.UpdatedAt = now

	queryInsert := `INSERT INTO bookings (
                id, resource_id, user_id, user_name,
                start_time, end_time, status, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, queryInsert,
		booking.ID, booking.ResourceID, booking.UserID, booking.UserName,
		start, end, booking.Status, now, now,
	); err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}
	return nil
}

// CancelAndReassign cancels a CONFIRMED booking and, when the remaining time
// clears the usability threshold, promotes the oldest WAITING entry of the
// resource's facility and category into the freed remainder. One transaction:
// either the cancellation and the promotion both commit or neither does.
func (db *DB) CancelAndReassign(ctx context.Context, bookingID string, now time.Time, minUsableMinutes int) (*models.CancelResult, error) {
	now = now.UTC()

	// Сначала узнаем ресурс, чтобы взять правильный замок.
	var resourceID string
	err := db.QueryRowContext(ctx, `SELECT resource_id FROM bookings WHERE id = ?`, bookingID).Scan(&resourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidBooking
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking resource: %w", err)
	}

	unlock := db.lockResource(resourceID)
	defer unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Перечитываем бронь уже под замком настоящим.
	booking, err := getBookingTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingConfirmed {
		return nil, ErrInvalidBooking
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		models.BookingCancelled, now, bookingID,
	); err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	remaining := int(math.Round(booking.EndTime.Sub(now).Minutes()))

	// Огрызок времени короче порога никому не передаем.
	if remaining < minUsableMinutes {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit cancellation: %w", err)
		}
		return &models.CancelResult{
			Outcome:          models.OutcomeTooShort,
			Message:          fmt.Sprintf("Booking cancelled. Remaining %d minutes are too short to reassign.", remaining),
			RemainingMinutes: remaining,
		}, nil
	}

	resource, ok := db.GetResource(resourceID)
	if !ok {
		return nil, ErrResourceUnavailable
	}

	entry, err := nextWaitingTx(ctx, tx, resource.FacilityID, resource.Category)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit cancellation: %w", err)
		}
		return &models.CancelResult{
			Outcome:          models.OutcomeNobodyWaiting,
			Message:          "Booking cancelled. Nobody was waiting.",
			RemainingMinutes: remaining,
		}, nil
	}

	if err := fulfilWaitlistTx(ctx, tx, entry.ID); err != nil {
		return nil, err
	}

	// Новый держатель получает остаток: [now, прежний конец). Жесткая
	// граница конца наследуется, свежий полный слот не выдается.
	promoted := &models.Booking{
		ResourceID: resourceID,
		UserID:     entry.UserID,
		UserName:   entry.UserName,
	}
	if err := insertBookingTx(ctx, tx, promoted, now, booking.EndTime); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reassignment: %w", err)
	}

	return &models.CancelResult{
		Outcome:          models.OutcomeReassigned,
		Message:          fmt.Sprintf("Booking cancelled and reassigned for %d minutes.", remaining),
		RemainingMinutes: remaining,
		Promoted:         promoted,
		PromotedEntry:    entry,
	}, nil
}

const bookingColumns = `id, resource_id, user_id, user_name, start_time, end_time, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.ResourceID, &b.UserID, &b.UserName,
		&b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	return &b, nil
}

func getBookingTx(ctx context.Context, tx *sql.Tx, id string) (*models.Booking, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidBooking
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetBooking возвращает бронирование по ID
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidBooking
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetActiveBookingsAt returns live bookings whose interval contains now,
// keyed by resource id. Feeds the IN_USE branch of the status view.
func (db *DB) GetActiveBookingsAt(ctx context.Context, now time.Time) (map[string]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE status IN (` + liveStatuses + `) AND start_time <= ? AND end_time > ?`
	rows, err := db.QueryContext(ctx, query, now.UTC(), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get active bookings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.Booking)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out[b.ResourceID] = b
	}
	return out, rows.Err()
}

// CountBookedSlotsFrom counts distinct booked slot starts in [from, until)
// per resource. Feeds slots-left and the FULLY_BOOKED branch.
func (db *DB) CountBookedSlotsFrom(ctx context.Context, from, until time.Time) (map[string]int, error) {
	query := `SELECT resource_id, COUNT(DISTINCT start_time) FROM bookings
              WHERE status IN (` + liveStatuses + `) AND start_time >= ? AND start_time < ?
              GROUP BY resource_id`
	rows, err := db.QueryContext(ctx, query, from.UTC(), until.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count booked slots: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var resourceID string
		var count int
		if err := rows.Scan(&resourceID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan booked count: %w", err)
		}
		out[resourceID] = count
	}
	return out, rows.Err()
}

// GetBookedStartTimes returns live booking starts for one resource within
// [from, until). The slot listing subtracts these from the generated grid.
func (db *DB) GetBookedStartTimes(ctx context.Context, resourceID string, from, until time.Time) ([]time.Time, error) {
	query := `SELECT start_time FROM bookings
              WHERE resource_id = ? AND status IN (` + liveStatuses + `)
              AND start_time >= ? AND start_time < ?`
	rows, err := db.QueryContext(ctx, query, resourceID, from.UTC(), until.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get booked start times: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan start time: %w", err)
		}
		out = append(out, t.UTC())
	}
	return out, rows.Err()
}

// GetUserBookings возвращает живые брони пользователя, не закончившиеся к now
func (db *DB) GetUserBookings(ctx context.Context, userID string, now time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE user_id = ? AND status IN (` + liveStatuses + `) AND end_time >= ?
              ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query, userID, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetFacilityBookings returns bookings of a facility in [from, until),
// joined through resources. Used by the export report.
func (db *DB) GetFacilityBookings(ctx context.Context, facilityID string, from, until time.Time) ([]*models.Booking, error) {
	query := `SELECT b.id, b.resource_id, b.user_id, b.user_name,
                     b.start_time, b.end_time, b.status, b.created_at, b.updated_at
              FROM bookings b
              JOIN resources r ON r.id = b.resource_id
              WHERE r.facility_id = ? AND b.start_time >= ? AND b.start_time < ?
              ORDER BY b.start_time ASC, b.created_at ASC`
	rows, err := db.QueryContext(ctx, query, facilityID, from.UTC(), until.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get facility bookings: %w", err)
	}
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
