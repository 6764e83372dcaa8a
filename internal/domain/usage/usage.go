// Package usage describes embedding token consumption against the local budget.
package usage

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/semindex/internal/domain"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty selects PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q (want day or month): %w", s, domain.ErrInvalidInput)
	}
}

// Bounds returns the UTC window of the period containing t, end exclusive.
func (p Period) Bounds(t time.Time) (start, end time.Time) {
	t = t.UTC()
	if p == PeriodMonth {
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is the token usage for one period.
type Report struct {
	period    Period
	start     time.Time
	end       time.Time
	limit     int64
	used      int64
	remaining int64
}

// NewReport creates a report. A zero limit means unlimited.
func NewReport(period Period, start, end time.Time, limit, used int64) Report {
	remaining := int64(-1)
	if limit > 0 {
		remaining = max(limit-used, 0)
	}
	return Report{period: period, start: start, end: end, limit: limit, used: used, remaining: remaining}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// Start returns the first instant of the period.
func (r *Report) Start() time.Time { return r.start }

// ResetsAt returns the instant the counters reset.
func (r *Report) ResetsAt() time.Time { return r.end }

// Limit returns the token cap, 0 if unlimited.
func (r *Report) Limit() int64 { return r.limit }

// Used returns tokens consumed in the period.
func (r *Report) Used() int64 { return r.used }

// Remaining returns tokens left, -1 if unlimited.
func (r *Report) Remaining() int64 { return r.remaining }

// Exhausted reports whether a limited budget is used up.
func (r *Report) Exhausted() bool { return r.limit > 0 && r.remaining == 0 }
