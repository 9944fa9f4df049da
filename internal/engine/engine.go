// Package engine owns the process-lifetime context object: the serialized
// cycle loop that ties the fetch pipeline to the poll scheduler.
package engine

import (
	"context"
	"time"

	"github.com/t1000cgm/companion/internal/domain"
	"github.com/t1000cgm/companion/internal/logger"
	"github.com/t1000cgm/companion/internal/services"
)

// Engine runs non-overlapping sync cycles triggered by its own scheduler
// timer or by an external "data requested" signal. Exactly one fetch is
// scheduled at a time; the completion of a cycle is what re-arms the next
// timer.
type Engine struct {
	sync      *services.SyncService
	settings  *services.SettingsService
	scheduler scheduler
	requests  chan struct{}
	now       func() time.Time
}

// New builds the engine.
func New(sync *services.SyncService, settings *services.SettingsService) *Engine {
	return &Engine{
		sync:     sync,
		settings: settings,
		requests: make(chan struct{}, 1),
		now:      time.Now,
	}
}

// RequestRefresh queues an immediate cycle, e.g. when the display surface
// asks for data. Coalesces when a request is already pending.
func (e *Engine) RequestRefresh() {
	select {
	case e.requests <- struct{}{}:
	default:
	}
}

// ApplySettings persists a replacement settings record, invalidates the
// held session so new credentials take effect, and triggers a cycle.
func (e *Engine) ApplySettings(settings domain.Settings) error {
	if err := e.settings.Replace(settings); err != nil {
		return err
	}
	e.sync.ResetSession()
	e.RequestRefresh()
	return nil
}

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately.
func (e *Engine) Run(ctx context.Context) error {
	logger.Info("Engine started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Engine stopped")
			return nil
		case <-timer.C:
		case <-e.requests:
			// Cancel the pending timer; this cycle replaces it.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		readingTime := e.sync.RunCycle(ctx)
		e.scheduler.observe(readingTime)

		delay := e.scheduler.nextDelay(e.now())
		logger.Debug("Next poll scheduled", "delay", delay)
		timer.Reset(delay)
	}
}
