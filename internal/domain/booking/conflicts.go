package booking

import (
	"context"
	"sort"

	"classroombooking/internal/domain"
)

// ConflictDetector answers "which confirmed bookings block this range". It is
// read-only; the store's write path is what actually prevents overlaps.
type ConflictDetector struct {
	reader OverlapReader
}

func NewConflictDetector(reader OverlapReader) *ConflictDetector {
	return &ConflictDetector{reader: reader}
}

// Detect returns the confirmed bookings of classroomID overlapping r, ordered
// by start. excludeID > 0 leaves that booking out.
func (d *ConflictDetector) Detect(ctx context.Context, classroomID int64, r domain.TimeRange, excludeID int64) ([]domain.Booking, error) {
	found, err := d.reader.FindOverlapping(ctx, classroomID, r, excludeID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Booking, 0, len(found))
	for i := range found {
		b := found[i]
		if b.ID == excludeID && excludeID > 0 {
			continue
		}
		if b.ClassroomID != classroomID || !b.Blocks(r) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].TimeRange.Start(), out[j].TimeRange.Start()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Conflicts is Detect shaped for callers: one entry per blocking booking.
func (d *ConflictDetector) Conflicts(ctx context.Context, classroomID int64, r domain.TimeRange, excludeID int64) ([]Conflict, error) {
	blocking, err := d.Detect(ctx, classroomID, r, excludeID)
	if err != nil {
		return nil, err
	}
	out := make([]Conflict, 0, len(blocking))
	for _, b := range blocking {
		out = append(out, newConflict(b))
	}
	return out, nil
}
