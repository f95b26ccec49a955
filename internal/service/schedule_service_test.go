package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/studioflow-api/internal/dto"
)

func newScheduleFixture(t *testing.T, cache *redis.Client) (*instanceFixture, ScheduleService) {
	t.Helper()

	base := newInstanceFixture(t)
	svc := NewScheduleService(base.templates, base.instances, base.service, cache, time.Minute, testLogger())

	return base, svc
}

func TestScheduleRangeMaterializesOccurrences(t *testing.T) {
	f, svc := newScheduleFixture(t, nil)
	f.seedBallet(t)

	// Two Mondays fall inside the window; nothing exists before the call.
	response, err := svc.Range(context.Background(), 1, date(2025, 9, 8), date(2025, 9, 16))
	require.NoError(t, err)
	require.False(t, response.CacheHit)
	require.Len(t, response.Days, 2)
	require.Equal(t, "2025-09-08", response.Days[0].Date)
	require.Equal(t, "2025-09-15", response.Days[1].Date)
	require.Equal(t, []uint{1}, response.Days[0].Instances[0].StudentIDs)
}

func TestScheduleRangeIncludesStandaloneSessions(t *testing.T) {
	f, svc := newScheduleFixture(t, nil)
	f.seedBallet(t)

	standalone, err := f.service.CreateStandalone(context.Background(), 1, dto.StandaloneInstanceRequest{
		Date:      "2025-09-10",
		StartTime: "19:00",
	})
	require.NoError(t, err)

	response, err := svc.Range(context.Background(), 1, date(2025, 9, 8), date(2025, 9, 12))
	require.NoError(t, err)
	require.Len(t, response.Days, 2)
	require.Equal(t, "2025-09-10", response.Days[1].Date)
	require.Equal(t, standalone.ID, response.Days[1].Instances[0].ID)
}

func TestScheduleRangeUsesCache(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	f, svc := newScheduleFixture(t, cache)
	f.seedBallet(t)

	first, err := svc.Range(context.Background(), 1, date(2025, 9, 8), date(2025, 9, 9))
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := svc.Range(context.Background(), 1, date(2025, 9, 8), date(2025, 9, 9))
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Days, second.Days)

	mini.FastForward(2 * time.Minute)

	third, err := svc.Range(context.Background(), 1, date(2025, 9, 8), date(2025, 9, 9))
	require.NoError(t, err)
	require.False(t, third.CacheHit, "expired entries recompute")
}

func TestScheduleRangeRejectsBadWindows(t *testing.T) {
	_, svc := newScheduleFixture(t, nil)

	_, err := svc.Range(context.Background(), 1, date(2025, 9, 10), date(2025, 9, 8))
	require.ErrorIs(t, err, ErrScheduleRangeInvalid)

	_, err = svc.Range(context.Background(), 1, date(2025, 9, 1), date(2025, 12, 1))
	require.ErrorIs(t, err, ErrScheduleRangeInvalid)
}
