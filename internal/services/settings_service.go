package services

import (
	"fmt"
	"sync"

	"github.com/t1000cgm/companion/internal/domain"
	"github.com/t1000cgm/companion/internal/logger"
	"github.com/t1000cgm/companion/internal/storage"
)

// Defaults applied for missing or zero stored fields. Old records written
// by earlier versions may lack fields and must not break the load path.
const (
	defaultLowThreshold  = 70
	defaultHighThreshold = 180

	defaultLowSoonThreshold     = 80
	defaultLowSoonRepeatMinutes = 30
	defaultHighVibeThreshold    = 240
	defaultHighDelayMinutes     = 60
	defaultHighRepeatMinutes    = 60
)

// SettingsService owns the persisted Settings record. The record is read
// once at startup and replaced wholesale by the configuration UI; every
// replacement is persisted before it takes effect.
type SettingsService struct {
	store   storage.Store
	mu      sync.RWMutex
	current domain.Settings
}

// NewSettingsService loads settings from the store, filling defaults for
// anything missing.
func NewSettingsService(store storage.Store) (*SettingsService, error) {
	var stored domain.Settings
	found, err := store.Load(storage.KeySettings, &stored)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !found {
		logger.Info("No stored settings, using defaults")
	}

	return &SettingsService{
		store:   store,
		current: applyDefaults(stored),
	}, nil
}

// Current returns the active settings record.
func (s *SettingsService) Current() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace persists a new settings record and makes it active. Called when
// the external configuration UI closes.
func (s *SettingsService) Replace(settings domain.Settings) error {
	settings = applyDefaults(settings)

	if err := s.store.Save(storage.KeySettings, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	logger.Info("Settings replaced", "server", settings.Server, "unit", settings.Unit)
	return nil
}

func applyDefaults(s domain.Settings) domain.Settings {
	if s.Server == "" {
		s.Server = domain.ServerUS
	}
	if s.Unit == "" {
		s.Unit = domain.UnitMgdl
	}
	if s.LowThreshold == 0 {
		s.LowThreshold = defaultLowThreshold
	}
	if s.HighThreshold == 0 {
		s.HighThreshold = defaultHighThreshold
	}
	if s.VibeLowSoonThreshold == 0 {
		s.VibeLowSoonThreshold = defaultLowSoonThreshold
	}
	if s.VibeLowSoonRepeatMinutes == 0 {
		s.VibeLowSoonRepeatMinutes = defaultLowSoonRepeatMinutes
	}
	if s.VibeHighThreshold == 0 {
		s.VibeHighThreshold = defaultHighVibeThreshold
	}
	if s.VibeHighDelayMinutes == 0 {
		s.VibeHighDelayMinutes = defaultHighDelayMinutes
	}
	if s.VibeHighRepeatMinutes == 0 {
		s.VibeHighRepeatMinutes = defaultHighRepeatMinutes
	}
	return s
}
