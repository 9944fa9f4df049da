package services

import (
	"context"
	"time"

	"github.com/t1000cgm/companion/internal/domain"
	apperrors "github.com/t1000cgm/companion/internal/errors"
	"github.com/t1000cgm/companion/internal/logger"
	"github.com/t1000cgm/companion/internal/utils"
)

// A delta between the two most recent readings is only meaningful when
// they are adjacent in the 5-minute cadence.
const deltaMaxGap = 10 * time.Minute

// SyncService is the fetch pipeline: cache check, session reuse, re-auth
// with at most one login retry per cycle, then dispatch of exactly one
// result record to the display surface.
type SyncService struct {
	settings *SettingsService
	cache    *CacheService
	alerts   *AlertService
	client   domain.SessionClient
	sender   domain.Sender
	archive  domain.ReadingArchive // nil disables archiving

	session string
	now     func() time.Time
}

// NewSyncService wires the pipeline. archive may be nil.
func NewSyncService(settings *SettingsService, cache *CacheService, alerts *AlertService,
	client domain.SessionClient, sender domain.Sender, archive domain.ReadingArchive) *SyncService {
	return &SyncService{
		settings: settings,
		cache:    cache,
		alerts:   alerts,
		client:   client,
		sender:   sender,
		archive:  archive,
		now:      time.Now,
	}
}

// ResetSession drops the held session so the next cycle logs in again.
func (s *SyncService) ResetSession() {
	s.session = ""
}

// RunCycle resolves a reading set (cache or network, with auth recovery),
// evaluates alerts, dispatches one record, and returns the timestamp of
// the most recent reading processed. The zero time means the cycle ended
// on an error record.
func (s *SyncService) RunCycle(ctx context.Context) time.Time {
	settings := s.settings.Current()

	if !settings.HasCredentials() {
		logger.Info("No credentials configured, dispatching setup record")
		s.dispatchError(ctx, true, false)
		return time.Time{}
	}

	if readings, ok := s.cache.Get(); ok {
		logger.Debug("Serving cycle from reading cache", "count", len(readings))
		return s.process(ctx, readings)
	}

	readings, err := s.fetch(ctx)
	if err != nil {
		switch apperrors.TypeOf(err) {
		case apperrors.ErrorTypeAuth:
			logger.Error("Auth failed, user must fix credentials", "error", err)
		case apperrors.ErrorTypeData:
			logger.Error("Server returned unusable data", "error", err)
		default:
			logger.Warn("Fetch failed, next poll will retry", "error", err)
		}
		s.dispatchError(ctx, false, true)
		return time.Time{}
	}

	s.cache.Put(readings)
	if s.archive != nil {
		if err := s.archive.SaveReadings(ctx, readings); err != nil {
			logger.Warn("Failed to archive readings", "error", err)
		}
	}
	return s.process(ctx, readings)
}

// fetch resolves a reading set from the network, reusing the held session
// when there is one and logging in at most once.
func (s *SyncService) fetch(ctx context.Context) ([]domain.Reading, error) {
	if s.session != "" {
		readings, err := s.client.FetchReadings(ctx, s.session)
		if err == nil {
			return readings, nil
		}
		logger.Warn("Held session rejected, re-authenticating", "error", err)
		s.session = ""
		readings, err = s.loginAndFetch(ctx)
		if err != nil {
			// Second failure in one cycle: treat as an auth problem
			// rather than retrying further.
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeAuth, "fetch failed after re-login")
		}
		return readings, nil
	}
	return s.loginAndFetch(ctx)
}

func (s *SyncService) loginAndFetch(ctx context.Context) ([]domain.Reading, error) {
	session, err := s.client.Login(ctx)
	if err != nil {
		return nil, err
	}
	s.session = session

	readings, err := s.client.FetchReadings(ctx, s.session)
	if err != nil {
		s.session = ""
		return nil, err
	}
	return readings, nil
}

// process evaluates alerts, builds the outbound record and sends it.
func (s *SyncService) process(ctx context.Context, readings []domain.Reading) time.Time {
	alert := s.alerts.Evaluate(readings)
	update := s.buildUpdate(readings, alert)
	s.send(ctx, update)
	return readings[0].Timestamp
}

func (s *SyncService) buildUpdate(readings []domain.Reading, alert domain.AlertCode) domain.Update {
	settings := s.settings.Current()
	now := s.now()
	latest := readings[0]

	update := domain.Update{
		DisplayValue:  utils.FormatValue(latest.Value, settings.Unit),
		Trend:         latest.Trend,
		MinutesAgo:    utils.MinutesSince(now, latest.Timestamp),
		Alert:         alert,
		LowThreshold:  settings.LowThreshold,
		HighThreshold: settings.HighThreshold,
		Reversed:      settings.Reversed,
	}

	if len(readings) >= 2 {
		previous := readings[1]
		if latest.Timestamp.Sub(previous.Timestamp) <= deltaMaxGap {
			update.DisplayDelta = utils.FormatDelta(latest.Value-previous.Value, settings.Unit)
		}
	}

	update.History = make([]domain.HistoryPoint, 0, len(readings))
	for _, reading := range readings {
		update.History = append(update.History, domain.HistoryPoint{
			Value:      reading.Value,
			MinutesAgo: utils.MinutesSince(now, reading.Timestamp),
		})
	}
	return update
}

// dispatchError sends the blank record variant. No alert fires and no
// cache write happens on any error path.
func (s *SyncService) dispatchError(ctx context.Context, needsSetup, syncError bool) {
	settings := s.settings.Current()
	s.send(ctx, domain.Update{
		LowThreshold:  settings.LowThreshold,
		HighThreshold: settings.HighThreshold,
		Reversed:      settings.Reversed,
		NeedsSetup:    needsSetup,
		HasSyncError:  syncError,
	})
}

func (s *SyncService) send(ctx context.Context, update domain.Update) {
	if err := s.sender.Send(ctx, update); err != nil {
		// A failed send never affects scheduling; the next cycle sends
		// a fresh record anyway.
		logger.Warn("Failed to send update to display", "error", err)
	}
}
