package database

import (
	"context"
	"testing"
	"time"

	"hostelbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func TestBookSlot(t *testing.T) {
	db := setupTestDB(t)
	seedResources(t, db)
	ctx := context.Background()

	start, end := testSlot(testDay, 10, 0)
	booking := &models.Booking{
		ResourceID: "laundry-1",
		UserID:     "user-a",
		UserName:   "Alice",
		StartTime:  start,
		EndTime:    end,
	}
	require.NoError(t, db.BookSlot(ctx, booking))
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingConfirmed, booking.Status)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-a", got.UserID)
	assert.True(t, got.StartTime.Equal(start))
	assert.True(t, got.EndTime.Equal(end))
}

func TestBookSlotResourceUnavailable(t *testing.T) {
	db := setupTestDB(t)
	seedResources(t, db)
	ctx := context.Background()

	start, end := testSlot(testDay, 10, 0)

	// Несуществующий ресурс
	err := db.BookSlot(ctx, &models.Booking{ResourceID: "ghost", UserID: "u", StartTime: start, EndTime: end})
	assert.ErrorIs(t, err, ErrResourceUnavailable)

	// Ресурс на обслуживании
	err = db.BookSlot(ctx, &models.Booking{ResourceID: "laundry-3", UserID: "u", StartTime: start, EndTime: end})
	assert.ErrorIs(t, err, ErrResourceUnavailable)
}

func TestBookSlotConflicts(t *testing.T) {
	db := setupTestDB(t)
	seedResources(t, db)
	ctx := context.Background()

	start, end := testSlot(testDay, 10, 0)
	require.NoError(t, db.BookSlot(ctx, &models.Booking{
		ResourceID: "laundry-1", UserID: "user-a", StartTime: start, EndTime: end,
	}))

	t.Run("identical window", func(t *testing.T) {
		err := db.BookSlot(ctx, &models.Booking{
			ResourceID: "laundry-1", UserID: "user-b", StartTime: start, EndTime: end,
		})
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("partial overlap", func(t *testing.T) {
		err := db.BookSlot(ctx, &models.Booking{
			ResourceID: "laundry-1", UserID: "user-b",
			StartTime: start.Add(30 * time.Minute), EndTime: end.Add(30 * time.Minute),
		})
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("touching intervals do not conflict", func(t *testing.T) {
		// [10:45, 11:30) после [10:00, 10:45) — границы полуоткрытые.
		err := db.BookSlot(ctx, &models.Booking{
			ResourceID: "laundry-1", UserID: "user-b", StartTime: end, EndTime: end.Add(45 * time.Minute),
		})
		assert.NoError(t, err)
	})

	t.Run("other resource unaffected", func(t *testing.T) {
		err := db.BookSlot(ctx, &models.Booking{
			ResourceID: "laundry-2", UserID: "user-b", StartTime: start, EndTime: end,
		})
		assert.NoError(t, err)
	})

	t.Run("cancelled booking frees the window", func(t *testing.T) {
		s2, e2 := testSlot(testDay, 14, 0)
		b := &models.Booking{ResourceID: "court-1", UserID: "user-a", StartTime: s2, EndTime: e2}
		require.NoError(t, db.BookSlot(ctx, b))

		_, err := db.CancelAndReassign(ctx, b.ID, s2.Add(-time.Hour), models.DefaultMinimumUsableMinutes)
		require.NoError(t, err)

		err = db.BookSlot(ctx, &models.Booking{ResourceID: "court-1", UserID: "user-b", StartTime: s2, EndTime: e2})
		assert.NoError(t, err)
	})
}

func TestCancelAndReassignThreshold(t *testing.T) {
	db := setupTestDB(t)
	seedResources(t, db)
	ctx := context.Background()

	join := func(user string) {
		require.NoError(t, db.JoinWaitlist(ctx, &models.WaitlistEntry{
			FacilityID: "hostel-a", UserID: user, UserName: user, Category: models.CategoryLaundry,
		}))
	}

	t.Run("24 minutes left skips the waitlist", func(t *testing.T) {
		start, end := testSlot(testDay, 10, 0)
		b := &models.Booking{ResourceID: "laundry-1", UserID: "user-a", StartTime: start, EndTime: end}
		require.NoError(t, db.BookSlot(ctx, b))
		join("waiting-1")

		now := end.Add(-24 * time.Minute)
		res, err := db.CancelAndReassign(ctx, b.ID, now, models.DefaultMinimumUsableMinutes)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeTooShort, res.Outcome)
		assert.Equal(t, 24, res.RemainingMinutes)
		assert.Nil(t, res.Promoted)

		// Запись в очереди осталась нетронутой.
		entries, err := db.GetUserWaitlistEntries(ctx, "waiting-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.WaitlistWaiting, entries[0].Status)
	})

	t.Run("26 minutes left promotes exactly one", func(t *testing.T) {
		start, end := testSlot(testDay, 12, 0)
		b := &models.Booking{ResourceID: "laundry-1", UserID: "user-a", StartTime: start, EndTime: end}
		require.NoError(t, db.BookSlot(ctx, b))

		now := end.Add(-26 * time.Minute)
		res, err := db.CancelAndReassign(ctx, b.ID, now, models.DefaultMinimumUsableMinutes)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeReassigned, res.Outcome)
		assert.Equal(t, 26, res.RemainingMinutes)
		require.NotNil(t, res.Promoted)
		assert.Equal(t, "waiting-1", res.Promoted.UserID)
		// Новый держатель наследует жесткий конец, а не полный слот.
		assert.True(t, res.Promoted.StartTime.Equal(now))
		assert.True(t, res.Promoted.EndTime.Equal(end))

		entry, err := db.GetWaitlistEntry(ctx, res.PromotedEntry.ID)
		require.NoError(t, err)
		assert.Equal(t, models.WaitlistFulfilled, entry.Status)
	})

	t.Run("nobody waiting", func(t *testing.T) {
		start, end := testSlot(testDay, 16, 0)
		b := &models.Booking{ResourceID: "laundry-1", UserID: "user-a", StartTime: start, EndTime: end}
		require.NoError(t, db.BookSlot(ctx, b))

		res, err := db.CancelAndReassign(ctx, b.ID, start, models.DefaultMinimumUsableMinutes)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeNobodyWaiting, res.Outcome)
		assert.Nil(t, res.Promoted)
	})
}

func TestCancelAndReassignInvalid(t *testing.T) {
	db := setupTestDB(t)
	seedResources(t, db)
	ctx := context.Background()

	_, err := db.CancelAndReassign(ctx, "missing", testDay, models.DefaultMinimumUsableMinutes)
	assert.ErrorIs(t, err, ErrInvalidBooking)

	start, end := testSlot(testDay, 10, 0)
	b := &models.Booking{ResourceID: "laundry-1", UserID: "user-a", StartTime: start, EndTime: end}
	require.NoError(t, db.BookSlot(ctx, b))

	_, err = db.CancelAndReassign(ctx, b.ID, start, models.DefaultMinimumUsableMinutes)
	require.NoError(t, err)

	// Повторная отмена уже отмененной брони
	_, err = db.CancelAndReassign(ctx, b.ID, start, models.DefaultMinimumUsableMinutes)
	assert.ErrorIs(t, err, ErrInvalidBooking)
}

func TestReassignmentFIFO(t *testing.T) {
	db := setupTestDB(t)
	seedResources(t, db)
	ctx := context.Background()

	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	for i, user := range []string{"first", "second", "third"} {
		require.NoError(t, db.JoinWaitlist(ctx, &models.WaitlistEntry{
			FacilityID: "hostel-a",
			UserID:     user,
			UserName:   user,
			Category:   models.CategoryLaundry,
			JoinedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	hours := []int{10, 12, 14}
	promoted := make([]string, 0, 3)
	for _, h := range hours {
		start, end := testSlot(testDay, h, 0)
		b := &models.Booking{ResourceID: "laundry-1", UserID: "holder", StartTime: start, EndTime: end}
		require.NoError(t, db.BookSlot(ctx, b))

		res, err := db.CancelAndReassign(ctx, b.ID, start, models.DefaultMinimumUsableMinutes)
		require.NoError(t, err)
		require.Equal(t, models.OutcomeReassigned, res.Outcome)
		promoted = append(promoted, res.Promoted.UserID)
	}

	assert.Equal(t, []string{"first", "second", "third"}, promoted)
}

func TestStatusAggregationQueries(t *testing.T) {
	db := setupTestDB(t)
	seedResources(t, db)
	ctx := context.Background()

	now := time.Date(2025, 6, 10, 10, 15, 0, 0, time.UTC)

	s1, e1 := testSlot(testDay, 10, 0) // покрывает now
	require.NoError(t, db.BookSlot(ctx, &models.Booking{ResourceID: "laundry-1", UserID: "user-a", UserName: "Alice", StartTime: s1, EndTime: e1}))

	s2, e2 := testSlot(testDay, 12, 0) // будущее
	require.NoError(t, db.BookSlot(ctx, &models.Booking{ResourceID: "laundry-2", UserID: "user-b", StartTime: s2, EndTime: e2}))

	active, err := db.GetActiveBookingsAt(ctx, now)
	require.NoError(t, err)
	require.Contains(t, active, "laundry-1")
	assert.Equal(t, "Alice", active["laundry-1"].UserName)
	assert.NotContains(t, active, "laundry-2")

	dayEnd := testDay.Add(24 * time.Hour)
	counts, err := db.CountBookedSlotsFrom(ctx, time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC), dayEnd)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["laundry-2"])
	assert.Zero(t, counts["laundry-1"])

	starts, err := db.GetBookedStartTimes(ctx, "laundry-2", testDay, dayEnd)
	require.NoError(t, err)
	require.Len(t, starts, 1)
	assert.True(t, starts[0].Equal(s2))
}

func TestGetUserBookings(t *testing.T) {
	db := setupTestDB(t)
	seedResources(t, db)
	ctx := context.Background()

	s1, e1 := testSlot(testDay, 10, 0)
	require.NoError(t, db.BookSlot(ctx, &models.Booking{ResourceID: "laundry-1", UserID: "user-a", StartTime: s1, EndTime: e1}))

	s2, e2 := testSlot(testDay, 14, 0)
	require.NoError(t, db.BookSlot(ctx, &models.Booking{ResourceID: "laundry-1", UserID: "user-a", StartTime: s2, EndTime: e2}))

	// После конца первого слота остается только второй.
	got, err := db.GetUserBookings(ctx, "user-a", e1.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].StartTime.Equal(s2))
}

func TestGetFacilityBookings(t *testing.T) {
	db := setupTestDB(t)
	seedResources(t, db)
	ctx := context.Background()

	s1, e1 := testSlot(testDay, 10, 0)
	require.NoError(t, db.BookSlot(ctx, &models.Booking{ResourceID: "laundry-1", UserID: "user-a", StartTime: s1, EndTime: e1}))
	require.NoError(t, db.BookSlot(ctx, &models.Booking{ResourceID: "laundry-b1", UserID: "user-b", StartTime: s1, EndTime: e1}))

	got, err := db.GetFacilityBookings(ctx, "hostel-a", testDay, testDay.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "user-a", got[0].UserID)
}
