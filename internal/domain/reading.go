package domain

import (
	"time"
)

// Reading is one timestamped soil-moisture measurement. Readings are
// append-only: never updated or deleted once recorded.
type Reading struct {
	ID            int64     `json:"id"`
	MoistureLevel float64   `json:"moisture_level"`
	Timestamp     time.Time `json:"reading_timestamp"`
}

// Statistics is a single aggregate pass over a trailing window of readings.
// Avg, Min, Max, Earliest, and Latest are nil when the window holds no
// readings; a zero value would falsely suggest a 0% measurement.
type Statistics struct {
	Count    int64      `json:"total_readings"`
	Avg      *float64   `json:"avg_moisture"`
	Min      *float64   `json:"min_moisture"`
	Max      *float64   `json:"max_moisture"`
	Earliest *time.Time `json:"earliest_reading"`
	Latest   *time.Time `json:"latest_reading"`
}
