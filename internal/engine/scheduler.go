package engine

import (
	"time"
)

const (
	// Vendor readings land roughly every 5 minutes; the grace period
	// trades a little latency for skipping near-miss "no new data yet"
	// calls.
	readingInterval = 5 * time.Minute
	gracePeriod     = 30 * time.Second

	// Bootstrap polling until the first good reading is observed.
	bootstrapDelay = 30 * time.Second

	// Clamp against busy-looping and unbounded drift.
	minDelay = 10 * time.Second
	maxDelay = 6 * time.Minute
)

// scheduler estimates when the next reading should be available. It is a
// closed loop synchronized to the vendor's jittered 5-minute cadence, not
// a fixed-interval poller.
type scheduler struct {
	lastGoodReadingTime time.Time
}

// observe records the most recent reading instant ever successfully
// processed. Cache hits feed it too; only error cycles leave it alone.
func (s *scheduler) observe(readingTime time.Time) {
	if !readingTime.IsZero() {
		s.lastGoodReadingTime = readingTime
	}
}

// nextDelay computes the wait before the next fetch attempt.
func (s *scheduler) nextDelay(now time.Time) time.Duration {
	if s.lastGoodReadingTime.IsZero() {
		return bootstrapDelay
	}

	// Target the next expected reading plus grace. If the app slept
	// through cycles, roll forward whole intervals until the target is
	// in the future.
	step := readingInterval + gracePeriod
	next := s.lastGoodReadingTime.Add(step)
	for !next.After(now) {
		next = next.Add(step)
	}

	delay := next.Sub(now)
	if delay < minDelay {
		return minDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
