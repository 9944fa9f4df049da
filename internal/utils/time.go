package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Share timestamps look like "/Date(1640088669000)/" or
// "/Date(1640088669000-0500)/". The epoch milliseconds are absolute, so
// the optional zone suffix is irrelevant for the instant itself.
var shareTimestampRe = regexp.MustCompile(`^/Date\((-?\d+)(?:[+-]\d{4})?\)/$`)

// ParseShareTimestamp converts a vendor-formatted timestamp into a
// time.Time in UTC.
func ParseShareTimestamp(raw string) (time.Time, error) {
	m := shareTimestampRe.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid share timestamp %q", raw)
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid share timestamp %q: %w", raw, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// MinutesSince returns full minutes elapsed from t to now, never negative.
func MinutesSince(now, t time.Time) int {
	if t.IsZero() || now.Before(t) {
		return 0
	}
	return int(now.Sub(t) / time.Minute)
}
