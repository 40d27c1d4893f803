package schedule

import (
	"context"
	"fmt"
	"time"

	"medbook/internal/models"
)

// SlotsForDate returns the bookable slots of a doctor on a concrete calendar
// date: weekday must match and the slot's validity window must cover the
// date. Pure read, safe to call concurrently and repeatedly.
func SlotsForDate(ctx context.Context, src SlotSource, doctorID string, date time.Time) ([]models.Slot, error) {
	day := models.DayOfWeekFromTime(date)
	slots, err := src.GetSlotsByDoctorAndDay(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("fetch slots: %w", err)
	}

	dateStr := date.Format(models.DateLayout)
	var matched []models.Slot
	for _, s := range slots {
		if !s.IsAvailable {
			continue
		}
		if s.CoversDate(dateStr) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}
