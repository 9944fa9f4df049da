// Package storage persists the engine's three keyed records: settings,
// alert debounce state and the reading cache. Each record is loaded and
// saved whole; there is a single writer and no concurrent mutation path.
package storage

// Record keys.
const (
	KeySettings     = "settings"
	KeyAlertState   = "alert_state"
	KeyReadingCache = "reading_cache"
)

// Store is a keyed full-record JSON store.
type Store interface {
	// Load unmarshals the record stored under key into v. It returns
	// false with a nil error when the record does not exist.
	Load(key string, v any) (bool, error)
	// Save marshals v and writes it under key, replacing any previous
	// record.
	Save(key string, v any) error
	Close() error
}
