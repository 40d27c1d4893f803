// Package schedule implements recurring availability windows: overlap
// detection on the write path and date resolution on the read path.
package schedule

import (
	"context"
	"fmt"

	"medbook/internal/models"
)

// OverlapError reports a proposed slot conflicting with an existing one on
// the same weekday. It is a validation failure, never retried.
type OverlapError struct {
	DayOfWeek models.DayOfWeek
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("slot overlaps with an existing slot on %s", e.DayOfWeek)
}

// SlotSource fetches a doctor's slots on a weekday.
type SlotSource interface {
	GetSlotsByDoctorAndDay(ctx context.Context, doctorID string, day models.DayOfWeek) ([]models.Slot, error)
}

// OverlapQuery describes a proposed slot window to test against existing
// slots of the same doctor and weekday.
type OverlapQuery struct {
	DoctorID      string
	DayOfWeek     models.DayOfWeek
	StartTime     string // "HH:MM"
	EndTime       string // "HH:MM"
	ValidFrom     *string
	ValidTo       *string
	ExcludeSlotID string // skip this slot, set when updating
}

// CheckOverlap reports whether the proposed window conflicts with any
// existing slot. Candidates whose validity range cannot intersect the
// proposal are skipped; the time comparison is half-open, so a slot ending
// exactly when another starts is not a conflict.
func CheckOverlap(ctx context.Context, src SlotSource, q OverlapQuery) (bool, error) {
	slots, err := src.GetSlotsByDoctorAndDay(ctx, q.DoctorID, q.DayOfWeek)
	if err != nil {
		return false, fmt.Errorf("fetch slots: %w", err)
	}

	for _, cand := range slots {
		if q.ExcludeSlotID != "" && cand.ID == q.ExcludeSlotID {
			continue
		}
		if !validityRangesIntersect(q.ValidFrom, q.ValidTo, cand.ValidFrom, cand.ValidTo) {
			continue
		}
		if q.StartTime < cand.EndTime && q.EndTime > cand.StartTime {
			return true, nil
		}
	}
	return false, nil
}

// validityRangesIntersect reports whether two validity date ranges can cover
// a common date. An unbounded side always intersects. ISO date strings
// compare lexicographically.
func validityRangesIntersect(aFrom, aTo, bFrom, bTo *string) bool {
	if aTo != nil && bFrom != nil && *aTo < *bFrom {
		return false
	}
	if aFrom != nil && bTo != nil && *aFrom > *bTo {
		return false
	}
	return true
}
