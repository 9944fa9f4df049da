package services

import (
	"time"

	"github.com/t1000cgm/companion/internal/domain"
	"github.com/t1000cgm/companion/internal/logger"
	"github.com/t1000cgm/companion/internal/storage"
)

// Readings land roughly every 5 minutes; a cached set younger than that
// is maximally fresh and a network call could not return anything newer.
const cacheMaxAge = 5 * time.Minute

// CacheService is the short-TTL persisted store of the last fetched
// reading set. It lets a watch-side "request update" gesture be answered
// without a network call while the data is still fresh.
type CacheService struct {
	store storage.Store
	now   func() time.Time
}

// NewCacheService builds a cache over the given store.
func NewCacheService(store storage.Store) *CacheService {
	return &CacheService{store: store, now: time.Now}
}

// Put stores the reading set with the current instant. Empty sets are
// skipped.
func (c *CacheService) Put(readings []domain.Reading) {
	if len(readings) == 0 {
		return
	}
	entry := domain.CacheEntry{
		Readings: readings,
		CachedAt: c.now(),
	}
	if err := c.store.Save(storage.KeyReadingCache, entry); err != nil {
		logger.Warn("Failed to write reading cache", "error", err)
	}
}

// Get returns the cached reading set if it is still valid. Validity keys
// off the most recent reading's timestamp, not the write instant.
func (c *CacheService) Get() ([]domain.Reading, bool) {
	var entry domain.CacheEntry
	found, err := c.store.Load(storage.KeyReadingCache, &entry)
	if err != nil {
		logger.Warn("Failed to read reading cache", "error", err)
		return nil, false
	}
	if !found || len(entry.Readings) == 0 {
		return nil, false
	}

	latest := entry.Readings[0].Timestamp
	if latest.IsZero() {
		return nil, false
	}
	if c.now().Sub(latest) >= cacheMaxAge {
		return nil, false
	}
	return entry.Readings, true
}
