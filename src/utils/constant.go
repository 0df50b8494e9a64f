package utils

import "time"

// -----------------------------------------------------------------------------

// Defaults used when a caller passes a zero value.
const (
	DefaultRetentionDays = 7
	DefaultHistorySize   = 32
)

// -----------------------------------------------------------------------------

// Journal recorder batching
const (
	RecorderQueueSize     = 1024
	RecorderBatchSize     = 64
	RecorderFlushInterval = 2 * time.Second
)

// -----------------------------------------------------------------------------

// RetentionCutoff returns the oldest timestamp kept for the given retention days.
func RetentionCutoff(now time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
