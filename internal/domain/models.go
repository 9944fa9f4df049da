package domain

import (
	"time"
)

// TrendCode is the enumerated rate-of-change indicator attached to a reading.
// The order matches the codes the watch uses to pick a trend arrow.
type TrendCode int

const (
	TrendNone TrendCode = iota
	TrendDoubleUp
	TrendSingleUp
	TrendFortyFiveUp
	TrendFlat
	TrendFortyFiveDown
	TrendSingleDown
	TrendDoubleDown
)

// Normalize maps out-of-range trend codes to TrendNone. The Share API
// occasionally returns raw integers above the highest known code.
func (t TrendCode) Normalize() TrendCode {
	if t < TrendNone || t > TrendDoubleDown {
		return TrendNone
	}
	return t
}

// Reading is one glucose measurement. Immutable once parsed.
type Reading struct {
	Value     int       `json:"value"` // mg/dL
	Timestamp time.Time `json:"timestamp"`
	Trend     TrendCode `json:"trend"`
}

// AlertCode identifies the vibration alert a cycle asks the watch to play.
type AlertCode int

const (
	AlertNone AlertCode = iota
	AlertLowSoon
	AlertHigh
)

// Server region identifiers for the Share API.
const (
	ServerUS  = "us"
	ServerOUS = "ous"
)

// Display units.
const (
	UnitMgdl = "mgdl"
	UnitMmol = "mmol"
)

// Settings is the flat configuration record owned by the external
// configuration UI. It is loaded once at startup and replaced wholesale
// when the UI closes; every mutation is persisted immediately.
type Settings struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Server        string `json:"server"`
	Unit          string `json:"unit"`
	Reversed      bool   `json:"reversed"`
	LowThreshold  int    `json:"lowThreshold"`  // mg/dL, chart line + LOW color
	HighThreshold int    `json:"highThreshold"` // mg/dL, chart line + HIGH color

	VibeLowSoonEnabled       bool `json:"vibeLowSoonEnabled"`
	VibeLowSoonThreshold     int  `json:"vibeLowSoonThreshold"` // mg/dL, predicted
	VibeLowSoonRepeatMinutes int  `json:"vibeLowSoonRepeatMinutes"`
	VibeHighEnabled          bool `json:"vibeHighEnabled"`
	VibeHighThreshold        int  `json:"vibeHighThreshold"` // mg/dL
	VibeHighDelayMinutes     int  `json:"vibeHighDelayMinutes"`
	VibeHighRepeatMinutes    int  `json:"vibeHighRepeatMinutes"`
}

// HasCredentials reports whether the account fields are filled in. Without
// them the engine dispatches a "needs setup" record and stays offline.
func (s Settings) HasCredentials() bool {
	return s.Username != "" && s.Password != ""
}

// AlertState is the persisted debounce state for both alert types. Zero
// times mean "never". It survives restarts so a relaunch cannot reset the
// high-alert delay timer or a repeat cool-down.
type AlertState struct {
	HighConditionStart time.Time `json:"highConditionStart"`
	LastHighVibe       time.Time `json:"lastHighVibe"`
	LastLowSoonVibe    time.Time `json:"lastLowSoonVibe"`
}

// CacheEntry is the persisted last fetched reading set.
type CacheEntry struct {
	Readings []Reading `json:"readings"`
	CachedAt time.Time `json:"cachedAt"`
}

// HistoryPoint is one chart sample sent to the watch.
type HistoryPoint struct {
	Value      int `json:"value"` // mg/dL, chart scale is fixed
	MinutesAgo int `json:"minutesAgo"`
}

// Update is the flat outbound record handed to the display surface. The
// rendering side owns everything visual; this is data only.
type Update struct {
	DisplayValue  string         `json:"displayValue"` // "LOW", "HIGH" or numeric
	DisplayDelta  string         `json:"displayDelta"` // signed, display units
	Trend         TrendCode      `json:"trend"`
	MinutesAgo    int            `json:"minutesAgo"`
	History       []HistoryPoint `json:"history"` // most recent first
	Alert         AlertCode      `json:"alert"`
	LowThreshold  int            `json:"lowThreshold"`
	HighThreshold int            `json:"highThreshold"`
	Reversed      bool           `json:"reversed"`
	NeedsSetup    bool           `json:"needsSetup"`
	HasSyncError  bool           `json:"hasSyncError"`
}
