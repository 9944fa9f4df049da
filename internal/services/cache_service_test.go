package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/t1000cgm/companion/internal/domain"
	"github.com/t1000cgm/companion/internal/storage"
)

func newCacheFixture(t *testing.T) (*CacheService, *time.Time) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cache := NewCacheService(store)
	clock := testBase
	cache.now = func() time.Time { return clock }
	return cache, &clock
}

func TestCacheRoundTripWhileFresh(t *testing.T) {
	cache, clock := newCacheFixture(t)
	readings := readingsAt(testBase, 112, 118, 121)
	cache.Put(readings)

	*clock = testBase.Add(4 * time.Minute)
	got, ok := cache.Get()
	require.True(t, ok)
	require.Equal(t, readings, got)
}

func TestCacheExpiresAfterFiveMinutes(t *testing.T) {
	cache, clock := newCacheFixture(t)
	cache.Put(readingsAt(testBase, 112, 118))

	*clock = testBase.Add(5 * time.Minute)
	_, ok := cache.Get()
	require.False(t, ok)
}

func TestCacheValidityKeysOffReadingTime(t *testing.T) {
	cache, clock := newCacheFixture(t)
	// Cached just now, but the newest reading is already 6 minutes old.
	cache.Put(readingsAt(testBase.Add(-6*time.Minute), 112, 118))

	*clock = testBase
	_, ok := cache.Get()
	require.False(t, ok)
}

func TestCacheSkipsEmptyPut(t *testing.T) {
	cache, _ := newCacheFixture(t)
	cache.Put(nil)

	_, ok := cache.Get()
	require.False(t, ok)
}

func TestCacheTreatsZeroTimestampAsAbsent(t *testing.T) {
	cache, _ := newCacheFixture(t)
	cache.Put([]domain.Reading{{Value: 112}})

	_, ok := cache.Get()
	require.False(t, ok)
}
