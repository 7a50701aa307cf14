package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustRange(t *testing.T, startDate, endDate, startClock, endClock string) TimeRange {
	t.Helper()
	sd, err := time.Parse("2006-01-02", startDate)
	assert.NoError(t, err)
	ed, err := time.Parse("2006-01-02", endDate)
	assert.NoError(t, err)
	r, err := NewTimeRangeFromParts(sd, ed, startClock, endClock, time.UTC)
	assert.NoError(t, err)
	return r
}

func TestNewTimeRange_RejectsDegenerate(t *testing.T) {
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	_, err := NewTimeRange(at, at)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewTimeRange(at, at.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNewTimeRangeFromParts_BadClock(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := NewTimeRangeFromParts(day, day, "9am", "11:00", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlaps_Symmetry(t *testing.T) {
	cases := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{
			name: "partial overlap",
			a:    mustRange(t, "2024-01-10", "2024-01-10", "09:00", "11:00"),
			b:    mustRange(t, "2024-01-10", "2024-01-10", "10:00", "12:00"),
			want: true,
		},
		{
			name: "containment",
			a:    mustRange(t, "2024-01-10", "2024-01-10", "09:00", "17:00"),
			b:    mustRange(t, "2024-01-10", "2024-01-10", "10:00", "11:00"),
			want: true,
		},
		{
			name: "adjacent does not conflict",
			a:    mustRange(t, "2024-01-10", "2024-01-10", "09:00", "10:00"),
			b:    mustRange(t, "2024-01-10", "2024-01-10", "10:00", "11:00"),
			want: false,
		},
		{
			name: "disjoint days",
			a:    mustRange(t, "2024-01-10", "2024-01-10", "09:00", "11:00"),
			b:    mustRange(t, "2024-01-11", "2024-01-11", "09:00", "11:00"),
			want: false,
		},
		{
			name: "multi-day spans a same-day slot",
			a:    mustRange(t, "2024-01-09", "2024-01-12", "08:00", "18:00"),
			b:    mustRange(t, "2024-01-10", "2024-01-10", "09:00", "11:00"),
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestRange_Elapsed(t *testing.T) {
	r := mustRange(t, "2024-01-10", "2024-01-10", "09:00", "11:00")

	assert.False(t, r.Elapsed(time.Date(2024, 1, 10, 10, 59, 0, 0, time.UTC)))
	assert.True(t, r.Elapsed(time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC)))
}
