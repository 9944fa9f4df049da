package services

import (
	"time"

	"github.com/t1000cgm/companion/internal/domain"
	"github.com/t1000cgm/companion/internal/logger"
	"github.com/t1000cgm/companion/internal/storage"
)

const (
	// Minimum readings needed for a velocity estimate.
	velocityMinReadings = 5
	// A gap wider than this between adjacent readings means the sensor
	// missed cycles; extrapolating across it would be guessing.
	velocityMaxGap = 7 * time.Minute
	// Prediction horizon: 4 reading intervals = 20 minutes.
	predictionIntervals = 4
)

// Recency-biased weights over the four pairwise velocities; they sum
// to 1.0 so equal deltas produce that same delta.
var velocityWeights = [4]float64{0.29, 0.27, 0.23, 0.21}

// CalculateVelocity computes the smoothed rate of change in mg/dL per
// 5-minute interval from a most-recent-first reading set. It refuses to
// answer (ok=false) when there are fewer than five readings, a reading
// value is missing, or a data gap breaks the cadence.
func CalculateVelocity(readings []domain.Reading) (float64, bool) {
	if len(readings) < velocityMinReadings {
		return 0, false
	}
	for i := 0; i < velocityMinReadings; i++ {
		if readings[i].Value <= 0 {
			return 0, false
		}
	}
	for i := 0; i < velocityMinReadings-1; i++ {
		gap := readings[i].Timestamp.Sub(readings[i+1].Timestamp)
		if gap > velocityMaxGap {
			return 0, false
		}
	}

	current := float64(readings[0].Value)
	var velocity float64
	for i := 1; i <= 4; i++ {
		pairwise := (current - float64(readings[i].Value)) / float64(i)
		velocity += velocityWeights[i-1] * pairwise
	}
	return velocity, true
}

// AlertService evaluates the low-soon and high alert conditions against
// the persisted debounce state. At most one alert code is pending per
// cycle; when both conditions fire the high alert wins.
type AlertService struct {
	store    storage.Store
	settings *SettingsService
	state    domain.AlertState
	now      func() time.Time
}

// NewAlertService loads the persisted debounce state.
func NewAlertService(store storage.Store, settings *SettingsService) (*AlertService, error) {
	var state domain.AlertState
	if _, err := store.Load(storage.KeyAlertState, &state); err != nil {
		return nil, err
	}
	return &AlertService{
		store:    store,
		settings: settings,
		state:    state,
		now:      time.Now,
	}, nil
}

// Evaluate runs both alert checks against a fresh reading set and returns
// the pending alert code for this cycle. The low-soon check runs first;
// the high check may overwrite its result.
func (s *AlertService) Evaluate(readings []domain.Reading) domain.AlertCode {
	if len(readings) == 0 {
		return domain.AlertNone
	}

	code := domain.AlertNone
	if s.checkLowSoon(readings) {
		code = domain.AlertLowSoon
	}
	if s.checkHigh(readings[0].Value) {
		code = domain.AlertHigh
	}
	return code
}

// checkLowSoon extrapolates 20 minutes ahead and fires when the predicted
// value crosses below the configured threshold. LastLowSoonVibe is never
// cleared when the prediction recovers; re-arming happens purely through
// the repeat interval, which keeps a value oscillating near the boundary
// from re-firing every cycle.
func (s *AlertService) checkLowSoon(readings []domain.Reading) bool {
	settings := s.settings.Current()
	if !settings.VibeLowSoonEnabled {
		return false
	}

	velocity, ok := CalculateVelocity(readings)
	if !ok {
		return false
	}

	predicted := float64(readings[0].Value) + velocity*predictionIntervals
	if predicted >= float64(settings.VibeLowSoonThreshold) {
		return false
	}

	now := s.now()
	repeat := time.Duration(settings.VibeLowSoonRepeatMinutes) * time.Minute
	if !s.state.LastLowSoonVibe.IsZero() && now.Sub(s.state.LastLowSoonVibe) < repeat {
		return false
	}

	s.state.LastLowSoonVibe = now
	s.persist()
	logger.Info("Low-soon alert fired", "predicted", int(predicted), "velocity", velocity)
	return true
}

// checkHigh fires once the value has stayed at or above the threshold for
// the configured delay, then again per repeat interval. A dip below the
// threshold restarts the delay timer but deliberately keeps LastHighVibe,
// so a brief dip cannot reset the repeat cool-down.
func (s *AlertService) checkHigh(currentValue int) bool {
	settings := s.settings.Current()
	if !settings.VibeHighEnabled {
		return false
	}

	now := s.now()

	if currentValue < settings.VibeHighThreshold {
		if !s.state.HighConditionStart.IsZero() {
			s.state.HighConditionStart = time.Time{}
			s.persist()
		}
		return false
	}

	if s.state.HighConditionStart.IsZero() {
		s.state.HighConditionStart = now
		s.persist()
	}

	delay := time.Duration(settings.VibeHighDelayMinutes) * time.Minute
	if now.Sub(s.state.HighConditionStart) < delay {
		return false
	}

	repeat := time.Duration(settings.VibeHighRepeatMinutes) * time.Minute
	if !s.state.LastHighVibe.IsZero() && now.Sub(s.state.LastHighVibe) < repeat {
		return false
	}

	s.state.LastHighVibe = now
	s.persist()
	logger.Info("High alert fired", "value", currentValue)
	return true
}

func (s *AlertService) persist() {
	if err := s.store.Save(storage.KeyAlertState, s.state); err != nil {
		logger.Warn("Failed to persist alert state", "error", err)
	}
}
