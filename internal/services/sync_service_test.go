package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/t1000cgm/companion/internal/domain"
	apperrors "github.com/t1000cgm/companion/internal/errors"
	"github.com/t1000cgm/companion/internal/storage"
)

type fakeSessionClient struct {
	loginSession string
	loginErr     error
	fetch        func(session string) ([]domain.Reading, error)
	loginCalls   int
	fetchCalls   int
}

func (c *fakeSessionClient) Login(_ context.Context) (string, error) {
	c.loginCalls++
	if c.loginErr != nil {
		return "", c.loginErr
	}
	return c.loginSession, nil
}

func (c *fakeSessionClient) FetchReadings(_ context.Context, session string) ([]domain.Reading, error) {
	c.fetchCalls++
	return c.fetch(session)
}

type captureSender struct {
	updates []domain.Update
}

func (s *captureSender) Send(_ context.Context, update domain.Update) error {
	s.updates = append(s.updates, update)
	return nil
}

func (s *captureSender) last(t *testing.T) domain.Update {
	t.Helper()
	require.NotEmpty(t, s.updates)
	return s.updates[len(s.updates)-1]
}

type syncFixture struct {
	sync   *SyncService
	sender *captureSender
	client *fakeSessionClient
	cache  *CacheService
	clock  *time.Time
}

func newSyncFixture(t *testing.T, settings domain.Settings) *syncFixture {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	settingsSvc, err := NewSettingsService(store)
	require.NoError(t, err)
	require.NoError(t, settingsSvc.Replace(settings))

	alertSvc, err := NewAlertService(store, settingsSvc)
	require.NoError(t, err)
	cacheSvc := NewCacheService(store)

	client := &fakeSessionClient{}
	sender := &captureSender{}
	syncSvc := NewSyncService(settingsSvc, cacheSvc, alertSvc, client, sender, nil)

	clock := testBase
	nowFn := func() time.Time { return clock }
	alertSvc.now = nowFn
	cacheSvc.now = nowFn
	syncSvc.now = nowFn

	return &syncFixture{
		sync:   syncSvc,
		sender: sender,
		client: client,
		cache:  cacheSvc,
		clock:  &clock,
	}
}

func credSettings() domain.Settings {
	return domain.Settings{Username: "account", Password: "secret"}
}

func TestRunCycleNeedsSetup(t *testing.T) {
	f := newSyncFixture(t, domain.Settings{})

	result := f.sync.RunCycle(context.Background())
	require.True(t, result.IsZero())
	require.Zero(t, f.client.loginCalls)
	require.Zero(t, f.client.fetchCalls)

	update := f.sender.last(t)
	require.True(t, update.NeedsSetup)
	require.False(t, update.HasSyncError)
	require.Equal(t, domain.AlertNone, update.Alert)
	require.Empty(t, update.DisplayValue)
	// Thresholds still ride along so the watch can draw its chart lines.
	require.Equal(t, 70, update.LowThreshold)
	require.Equal(t, 180, update.HighThreshold)
}

func TestRunCycleEndToEnd(t *testing.T) {
	settings := credSettings()
	settings.VibeLowSoonEnabled = true
	settings.VibeLowSoonThreshold = 80
	settings.VibeLowSoonRepeatMinutes = 30
	f := newSyncFixture(t, settings)

	readings := readingsAt(testBase, 65, 80, 95, 110, 120)
	readings[0].Trend = domain.TrendFlat
	f.client.loginSession = "sess-1"
	f.client.fetch = func(session string) ([]domain.Reading, error) {
		require.Equal(t, "sess-1", session)
		return readings, nil
	}

	result := f.sync.RunCycle(context.Background())
	require.Equal(t, testBase, result)

	update := f.sender.last(t)
	require.Equal(t, "65", update.DisplayValue)
	require.Equal(t, "-15", update.DisplayDelta)
	require.Equal(t, domain.TrendFlat, update.Trend)
	require.Equal(t, domain.AlertLowSoon, update.Alert)
	require.Equal(t, 0, update.MinutesAgo)
	require.Len(t, update.History, 5)
	require.Equal(t, domain.HistoryPoint{Value: 80, MinutesAgo: 5}, update.History[1])
	require.False(t, update.NeedsSetup)
	require.False(t, update.HasSyncError)

	// The fetch was cached for the next cycle.
	cached, ok := f.cache.Get()
	require.True(t, ok)
	require.Equal(t, readings, cached)
}

func TestRunCycleServesFromCache(t *testing.T) {
	f := newSyncFixture(t, credSettings())
	readings := readingsAt(testBase, 112, 118, 121, 125, 128)
	f.cache.Put(readings)

	*f.clock = testBase.Add(2 * time.Minute)
	result := f.sync.RunCycle(context.Background())

	require.Equal(t, testBase, result)
	require.Zero(t, f.client.loginCalls)
	require.Zero(t, f.client.fetchCalls)
	require.Equal(t, "112", f.sender.last(t).DisplayValue)
}

func TestRunCycleRecoversSession(t *testing.T) {
	f := newSyncFixture(t, credSettings())
	f.sync.session = "stale"
	f.client.loginSession = "fresh"
	f.client.fetch = func(session string) ([]domain.Reading, error) {
		if session == "stale" {
			return nil, apperrors.NewHTTPError(401, "SessionIdNotFound")
		}
		return readingsAt(testBase, 112, 118, 121, 125, 128), nil
	}

	result := f.sync.RunCycle(context.Background())
	require.Equal(t, testBase, result)
	require.Equal(t, 1, f.client.loginCalls)
	require.Equal(t, 2, f.client.fetchCalls)
	require.Equal(t, "fresh", f.sync.session)
	require.Equal(t, "112", f.sender.last(t).DisplayValue)
}

func TestRunCycleAuthErrorAfterRetry(t *testing.T) {
	f := newSyncFixture(t, credSettings())
	f.sync.session = "stale"
	f.client.loginSession = "fresh"
	f.client.fetch = func(session string) ([]domain.Reading, error) {
		return nil, apperrors.NewHTTPError(401, "SessionIdNotFound")
	}

	result := f.sync.RunCycle(context.Background())
	require.True(t, result.IsZero())
	// At most one login retry per cycle.
	require.Equal(t, 1, f.client.loginCalls)
	require.Equal(t, 2, f.client.fetchCalls)

	update := f.sender.last(t)
	require.True(t, update.HasSyncError)
	require.False(t, update.NeedsSetup)
	require.Equal(t, domain.AlertNone, update.Alert)

	// No cache write on any error path.
	_, ok := f.cache.Get()
	require.False(t, ok)
}

func TestRunCycleNetworkError(t *testing.T) {
	f := newSyncFixture(t, credSettings())
	f.client.loginErr = apperrors.New(apperrors.ErrorTypeNetwork, "dial timeout")

	result := f.sync.RunCycle(context.Background())
	require.True(t, result.IsZero())

	update := f.sender.last(t)
	require.True(t, update.HasSyncError)
	require.Equal(t, domain.AlertNone, update.Alert)
	require.Empty(t, update.DisplayValue)
}

func TestBuildUpdateSuppressesDeltaAcrossGap(t *testing.T) {
	f := newSyncFixture(t, credSettings())
	readings := []domain.Reading{
		{Value: 112, Timestamp: testBase},
		{Value: 95, Timestamp: testBase.Add(-15 * time.Minute)},
	}
	f.client.loginSession = "sess-1"
	f.client.fetch = func(string) ([]domain.Reading, error) { return readings, nil }

	f.sync.RunCycle(context.Background())
	update := f.sender.last(t)
	require.Equal(t, "112", update.DisplayValue)
	require.Empty(t, update.DisplayDelta)
}
