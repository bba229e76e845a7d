// Package stat models traffic and business statistics over calendar periods.
package stat

import (
	"fmt"
	"time"

	"github.com/orris-inc/trafficstat/internal/shared/biztime"
)

// Granularity is the record_type stored with every stat row.
type Granularity string

const (
	GranularityDaily   Granularity = "d"
	GranularityMonthly Granularity = "m"
)

func (g Granularity) String() string {
	return string(g)
}

func (g Granularity) IsValid() bool {
	return g == GranularityDaily || g == GranularityMonthly
}

// Window is a half-open period [Start, End) aligned to business midnight.
type Window struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// NewDayWindow returns the business day containing t.
func NewDayWindow(t time.Time) Window {
	return Window{
		Start:       biztime.StartOfDayUTC(t),
		End:         biztime.NextDayStartUTC(t),
		Granularity: GranularityDaily,
	}
}

// PreviousDayWindow returns the business day before the one containing t.
func PreviousDayWindow(t time.Time) Window {
	return NewDayWindow(biztime.PreviousDayStartUTC(t))
}

// RecordAt is the period start in epoch seconds, the value stored in record_at.
func (w Window) RecordAt() int64 {
	return w.Start.Unix()
}

// Bounds returns start and end in epoch seconds.
func (w Window) Bounds() (start, end int64) {
	return w.Start.Unix(), w.End.Unix()
}

// Contains reports whether epoch second ts falls inside the window.
func (w Window) Contains(ts int64) bool {
	start, end := w.Bounds()
	return ts >= start && ts < end
}

// Day is the business calendar date of the window, used as a storage key.
func (w Window) Day() string {
	return biztime.FormatDate(w.Start)
}

func (w Window) String() string {
	return fmt.Sprintf("%s[%s,%s)", w.Granularity, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
