package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbook/internal/models"
)

func TestSlotsForDate(t *testing.T) {
	// 2026-09-07 is a Monday.
	monday, err := models.ParseDate("2026-09-07")
	require.NoError(t, err)

	slots := []models.Slot{
		existingSlot("unbounded", "09:00", "10:00", nil, nil),
		existingSlot("covering", "10:00", "11:00", strPtr("2026-09-01"), strPtr("2026-09-30")),
		existingSlot("expired", "11:00", "12:00", nil, strPtr("2026-08-31")),
		existingSlot("not-yet-valid", "12:00", "13:00", strPtr("2026-10-01"), nil),
	}
	unavailable := existingSlot("switched-off", "13:00", "14:00", nil, nil)
	unavailable.IsAvailable = false
	slots = append(slots, unavailable)

	src := &stubSlotSource{slots: slots}

	got, err := SlotsForDate(context.Background(), src, "doc-1", monday)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"unbounded", "covering"}, ids)
}

// Resolving availability is a pure read: the same query returns the same
// result and mutates nothing.
func TestSlotsForDateIdempotent(t *testing.T) {
	monday, err := models.ParseDate("2026-09-07")
	require.NoError(t, err)

	src := &stubSlotSource{slots: []models.Slot{
		existingSlot("s1", "09:00", "10:00", nil, nil),
	}}

	first, err := SlotsForDate(context.Background(), src, "doc-1", monday)
	require.NoError(t, err)
	second, err := SlotsForDate(context.Background(), src, "doc-1", monday)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, src.slots, 1)
	assert.True(t, src.slots[0].IsAvailable)
}
