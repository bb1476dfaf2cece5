// Package analytics turns the raw stream of session and event facts into
// time-windowed derived statistics: KPI snapshots, geographic, device and
// channel breakdowns, funnel step counts, per-question dropoff, and the
// composed dashboard. Every read is recomputed from store contents at query
// time; the package holds no mutable aggregation state.
package analytics

import (
	"fmt"
	"time"

	"funneltrack/api/models"
)

// dateLayout is the calendar-date format accepted on range parameters.
const dateLayout = "2006-01-02"

// DateRange is an inclusive calendar-date window expanded to
// [start 00:00:00, end 23:59:59] UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses inclusive calendar dates. Malformed input or
// start > end fails with models.ErrInvalidRange.
func ParseDateRange(startDate, endDate string) (DateRange, error) {
	start, err := time.ParseInLocation(dateLayout, startDate, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad start_date %q", models.ErrInvalidRange, startDate)
	}
	end, err := time.ParseInLocation(dateLayout, endDate, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad end_date %q", models.ErrInvalidRange, endDate)
	}

	r := DateRange{
		Start: start,
		End:   end.Add(24*time.Hour - time.Second),
	}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate rejects inverted or zero-valued bounds.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: missing bounds", models.ErrInvalidRange)
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: start %s after end %s",
			models.ErrInvalidRange, r.Start.Format(dateLayout), r.End.Format(dateLayout))
	}
	return nil
}

// Contains reports whether ts falls inside the range.
func (r DateRange) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && !ts.After(r.End)
}

// Days enumerates every calendar day the range spans, in order.
func (r DateRange) Days() []string {
	var days []string
	for d := r.Start.Truncate(24 * time.Hour); !d.After(r.End); d = d.Add(24 * time.Hour) {
		days = append(days, d.Format(dateLayout))
	}
	return days
}
