package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Bar is one day's open/high/low/close/volume observation for an instrument.
type Bar struct {
	// Time is the calendar date of the bar at midnight UTC.
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
	// AdjClose is the split/dividend adjusted close when the provider reports one.
	// It is carried for completeness and never written to the LEAN archives.
	AdjClose optional.Option[float64] `csv:"-"`
}

// Date truncates t to its calendar date at midnight UTC, keeping the wall-clock
// date of t's own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InRange reports whether the bar falls in [start, end).
func (b Bar) InRange(start, end time.Time) bool {
	return !b.Time.Before(start) && b.Time.Before(end)
}
