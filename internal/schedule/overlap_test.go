package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbook/internal/models"
)

func strPtr(s string) *string { return &s }

// stubSlotSource serves a fixed slot list for any doctor/day.
type stubSlotSource struct {
	slots []models.Slot
	err   error
}

func (s *stubSlotSource) GetSlotsByDoctorAndDay(_ context.Context, _ string, _ models.DayOfWeek) ([]models.Slot, error) {
	return s.slots, s.err
}

func existingSlot(id, start, end string, from, to *string) models.Slot {
	return models.Slot{
		ID:          id,
		DoctorID:    "doc-1",
		DayOfWeek:   models.Monday,
		StartTime:   start,
		EndTime:     end,
		ValidFrom:   from,
		ValidTo:     to,
		IsAvailable: true,
	}
}

func TestCheckOverlap(t *testing.T) {
	tests := []struct {
		name     string
		existing []models.Slot
		q        OverlapQuery
		want     bool
	}{
		{
			name:     "no slots",
			existing: nil,
			q:        OverlapQuery{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "09:00", EndTime: "10:00"},
			want:     false,
		},
		{
			name:     "identical window",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", nil, nil)},
			q:        OverlapQuery{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "09:00", EndTime: "10:00"},
			want:     true,
		},
		{
			name:     "new starts inside existing",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", nil, nil)},
			q:        OverlapQuery{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "09:30", EndTime: "10:30"},
			want:     true,
		},
		{
			name:     "new ends inside existing",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", nil, nil)},
			q:        OverlapQuery{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "08:30", EndTime: "09:30"},
			want:     true,
		},
		{
			name:     "new contains existing",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", nil, nil)},
			q:        OverlapQuery{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "08:00", EndTime: "11:00"},
			want:     true,
		},
		{
			name:     "back to back before is not a conflict",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", nil, nil)},
			q:        OverlapQuery{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "08:00", EndTime: "09:00"},
			want:     false,
		},
		{
			name:     "back to back after is not a conflict",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", nil, nil)},
			q:        OverlapQuery{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "10:00", EndTime: "11:00"},
			want:     false,
		},
		{
			name:     "disjoint validity ranges never conflict",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", strPtr("2026-01-01"), strPtr("2026-06-30"))},
			q: OverlapQuery{
				DoctorID: "doc-1", DayOfWeek: models.Monday,
				StartTime: "09:00", EndTime: "10:00",
				ValidFrom: strPtr("2026-07-01"), ValidTo: strPtr("2026-12-31"),
			},
			want: false,
		},
		{
			name:     "touching validity ranges still conflict",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", strPtr("2026-01-01"), strPtr("2026-06-30"))},
			q: OverlapQuery{
				DoctorID: "doc-1", DayOfWeek: models.Monday,
				StartTime: "09:00", EndTime: "10:00",
				ValidFrom: strPtr("2026-06-30"), ValidTo: strPtr("2026-12-31"),
			},
			want: true,
		},
		{
			name:     "unbounded validity intersects everything",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", nil, nil)},
			q: OverlapQuery{
				DoctorID: "doc-1", DayOfWeek: models.Monday,
				StartTime: "09:30", EndTime: "10:30",
				ValidFrom: strPtr("2026-07-01"), ValidTo: strPtr("2026-07-31"),
			},
			want: true,
		},
		{
			name:     "exclude self on update",
			existing: []models.Slot{existingSlot("s1", "09:00", "10:00", nil, nil)},
			q: OverlapQuery{
				DoctorID: "doc-1", DayOfWeek: models.Monday,
				StartTime: "09:00", EndTime: "10:00",
				ExcludeSlotID: "s1",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSlotSource{slots: tt.existing}
			got, err := CheckOverlap(context.Background(), src, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Overlap is symmetric: if A conflicts with B, B conflicts with A.
func TestCheckOverlapSymmetry(t *testing.T) {
	a := existingSlot("a", "09:00", "10:30", nil, nil)
	b := existingSlot("b", "10:00", "11:00", nil, nil)

	gotAB, err := CheckOverlap(context.Background(), &stubSlotSource{slots: []models.Slot{b}}, OverlapQuery{
		DoctorID: a.DoctorID, DayOfWeek: a.DayOfWeek, StartTime: a.StartTime, EndTime: a.EndTime,
	})
	require.NoError(t, err)

	gotBA, err := CheckOverlap(context.Background(), &stubSlotSource{slots: []models.Slot{a}}, OverlapQuery{
		DoctorID: b.DoctorID, DayOfWeek: b.DayOfWeek, StartTime: b.StartTime, EndTime: b.EndTime,
	})
	require.NoError(t, err)

	assert.True(t, gotAB)
	assert.Equal(t, gotAB, gotBA)
}

func TestCheckOverlapSourceError(t *testing.T) {
	src := &stubSlotSource{err: errors.New("db gone")}
	_, err := CheckOverlap(context.Background(), src, OverlapQuery{DoctorID: "doc-1", DayOfWeek: models.Monday})
	assert.Error(t, err)
}
