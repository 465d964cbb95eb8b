package domain

import (
	"time"

	"github.com/google/uuid"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not count.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// FindConflict returns the first reservation in rows whose occupied interval
// overlaps [start, end). A reservation with id == exclude is skipped so an
// update does not conflict with itself.
func FindConflict(rows []Reservation, start, end time.Time, exclude uuid.UUID) (Reservation, bool) {
	for _, r := range rows {
		if r.ID == exclude {
			continue
		}
		if Overlaps(start, end, r.ScheduledAt, r.EndsAt()) {
			return r, true
		}
	}
	return Reservation{}, false
}
