package booking

import (
	"context"
	"sort"
	"time"

	"pinjamin/internal/domain"
)

// AvailabilityChecker decides whether a candidate range collides with the
// bookings that hold their slot (approved/completed). Processing bookings do
// not block; the approval transaction is the arbiter between them.
type AvailabilityChecker struct {
	bookings BookingRepository
	loc      *time.Location
}

func NewAvailabilityChecker(bookings BookingRepository, loc *time.Location) *AvailabilityChecker {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityChecker{bookings: bookings, loc: loc}
}

// FindConflicts loads slot-holding bookings whose coarse date range touches
// the candidate's days, then applies the precise half-open overlap test.
// Conflicts come back sorted by start for deterministic error messages.
func (c *AvailabilityChecker) FindConflicts(ctx context.Context, roomID int64, candidate domain.TimeRange) ([]domain.Booking, error) {
	startDay := truncateToDay(candidate.Start)
	endDay := truncateToDay(candidate.End)

	rows, err := c.bookings.FindBlocking(ctx, roomID, startDay, endDay)
	if err != nil {
		return nil, err
	}

	type hit struct {
		b     domain.Booking
		start time.Time
	}
	hits := make([]hit, 0, len(rows))
	for _, b := range rows {
		rng, err := b.Range(c.loc)
		if err != nil {
			// stored range predates validation; skip rather than block the room
			continue
		}
		if candidate.Overlaps(rng) {
			hits = append(hits, hit{b: b, start: rng.Start})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].start.Before(hits[j].start) })

	out := make([]domain.Booking, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.b)
	}
	return out, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
