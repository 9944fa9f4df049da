// Package watch holds implementations of the opaque "send to watch"
// primitive. The real phone-to-watch bridge registers its own Sender;
// delivery and acknowledgement mechanics stay outside the core.
package watch

import (
	"context"

	"github.com/t1000cgm/companion/internal/domain"
	"github.com/t1000cgm/companion/internal/logger"
)

// LogSender writes each outbound record to the log. It is the default
// sender when no bridge is attached, and what development runs use.
type LogSender struct{}

// NewLogSender builds a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the record.
func (s *LogSender) Send(_ context.Context, update domain.Update) error {
	logger.Info("Display update",
		"value", update.DisplayValue,
		"delta", update.DisplayDelta,
		"trend", int(update.Trend),
		"minutes_ago", update.MinutesAgo,
		"alert", int(update.Alert),
		"history_points", len(update.History),
		"needs_setup", update.NeedsSetup,
		"sync_error", update.HasSyncError,
	)
	return nil
}
