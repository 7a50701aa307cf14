package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRange = errors.New("invalid time range")

const clockLayout = "15:04"

// TimeRange is a half-open interval [Start, End) on a single absolute
// timeline. Multi-day bookings are one continuous interval from
// (start date, start clock) to (end date, end clock).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !end.After(start) {
		return TimeRange{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeRange{Start: start, End: end}, nil
}

// NewTimeRangeFromParts combines date parts with "15:04" clock strings in loc.
func NewTimeRangeFromParts(startDate, endDate time.Time, startClock, endClock string, loc *time.Location) (TimeRange, error) {
	start, err := combine(startDate, startClock, loc)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := combine(endDate, endClock, loc)
	if err != nil {
		return TimeRange{}, err
	}
	return NewTimeRange(start, end)
}

func combine(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad clock value %q", ErrInvalidRange, clock)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// Overlaps reports whether two half-open intervals intersect. Adjacent
// ranges (r.End == other.Start) do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Elapsed reports whether the whole range lies in the past at now.
func (r TimeRange) Elapsed(now time.Time) bool {
	return !now.Before(r.End)
}
