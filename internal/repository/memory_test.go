package repository

import (
	"context"
	"testing"
	"time"

	"hostelbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatusCache(t *testing.T) {
	cache := NewMemoryStatusCache(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "hostel-a", models.CategoryLaundry, sampleStatuses()))

	got, err := cache.Get(ctx, "hostel-a", models.CategoryLaundry)
	require.NoError(t, err)
	require.Len(t, got, 1)

	t.Run("expiry", func(t *testing.T) {
		time.Sleep(60 * time.Millisecond)
		got, err := cache.Get(ctx, "hostel-a", models.CategoryLaundry)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "hostel-a", models.CategoryLaundry, sampleStatuses()))
		require.NoError(t, cache.Set(ctx, "hostel-b", models.CategoryLaundry, sampleStatuses()))
		require.NoError(t, cache.Invalidate(ctx, "hostel-a"))

		got, err := cache.Get(ctx, "hostel-a", models.CategoryLaundry)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = cache.Get(ctx, "hostel-b", models.CategoryLaundry)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}

func TestMemoryRateLimit(t *testing.T) {
	cache := NewMemoryStatusCache(time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := cache.CheckRateLimit(ctx, "client", 5, 50*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := cache.CheckRateLimit(ctx, "client", 5, 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	time.Sleep(60 * time.Millisecond)
	ok, err = cache.CheckRateLimit(ctx, "client", 5, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
}
