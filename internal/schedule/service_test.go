package schedule

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbook/internal/models"
)

// mockSlotStore keeps slots in a map and records mutations.
type mockSlotStore struct {
	slots   map[string]models.Slot
	created []string
	deleted []string
}

func newMockSlotStore(existing ...models.Slot) *mockSlotStore {
	m := &mockSlotStore{slots: make(map[string]models.Slot)}
	for _, s := range existing {
		m.slots[s.ID] = s
	}
	return m
}

func (m *mockSlotStore) GetSlotsByDoctorAndDay(_ context.Context, doctorID string, day models.DayOfWeek) ([]models.Slot, error) {
	var out []models.Slot
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.DayOfWeek == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSlotStore) CreateSlot(_ context.Context, s *models.Slot) error {
	if s.ID == "" {
		s.ID = "generated"
	}
	m.slots[s.ID] = *s
	m.created = append(m.created, s.ID)
	return nil
}

func (m *mockSlotStore) GetSlot(_ context.Context, id string) (*models.Slot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, assert.AnError
	}
	return &s, nil
}

func (m *mockSlotStore) UpdateSlot(_ context.Context, s *models.Slot) error {
	m.slots[s.ID] = *s
	return nil
}

func (m *mockSlotStore) DeleteSlot(_ context.Context, id string) error {
	delete(m.slots, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newTestService(store SlotStore) *Service {
	logger := zerolog.Nop()
	return NewService(store, &logger)
}

func TestServiceCreateSlot(t *testing.T) {
	store := newMockSlotStore()
	svc := newTestService(store)

	slot := &models.Slot{
		DoctorID:  "doc-1",
		DayOfWeek: models.Monday,
		StartTime: "09:00",
		EndTime:   "10:00",
		Price:     150,
	}
	require.NoError(t, svc.CreateSlot(context.Background(), slot))
	assert.True(t, slot.IsAvailable)
	assert.Equal(t, models.SlotAvailable, slot.Status)
	assert.Len(t, store.created, 1)
}

func TestServiceCreateSlotValidation(t *testing.T) {
	tests := []struct {
		name    string
		slot    models.Slot
		wantErr error
	}{
		{
			name:    "bad day",
			slot:    models.Slot{DoctorID: "doc-1", DayOfWeek: "Someday", StartTime: "09:00", EndTime: "10:00"},
			wantErr: ErrInvalidDayOfWeek,
		},
		{
			name:    "start after end",
			slot:    models.Slot{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "10:00", EndTime: "09:00"},
			wantErr: ErrInvalidTimeOrder,
		},
		{
			name:    "zero length window",
			slot:    models.Slot{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "09:00", EndTime: "09:00"},
			wantErr: ErrInvalidTimeOrder,
		},
		{
			name: "validity inverted",
			slot: models.Slot{
				DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "09:00", EndTime: "10:00",
				ValidFrom: strPtr("2026-12-31"), ValidTo: strPtr("2026-01-01"),
			},
			wantErr: ErrInvalidValidity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newMockSlotStore())
			err := svc.CreateSlot(context.Background(), &tt.slot)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestServiceCreateSlotOverlap(t *testing.T) {
	store := newMockSlotStore(existingSlot("s1", "09:00", "10:00", nil, nil))
	svc := newTestService(store)

	slot := &models.Slot{
		DoctorID:  "doc-1",
		DayOfWeek: models.Monday,
		StartTime: "09:30",
		EndTime:   "10:30",
	}
	err := svc.CreateSlot(context.Background(), slot)

	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, models.Monday, overlap.DayOfWeek)
	assert.Empty(t, store.created)
}

func TestServiceUpdateSlotExcludesSelf(t *testing.T) {
	store := newMockSlotStore(existingSlot("s1", "09:00", "10:00", nil, nil))
	svc := newTestService(store)

	// Shrinking a slot within its own old window must not collide with itself.
	updated := existingSlot("s1", "09:00", "09:30", nil, nil)
	require.NoError(t, svc.UpdateSlot(context.Background(), &updated))
	assert.Equal(t, "09:30", store.slots["s1"].EndTime)
}

func TestServiceUpdateSlotOverlapsOther(t *testing.T) {
	store := newMockSlotStore(
		existingSlot("s1", "09:00", "10:00", nil, nil),
		existingSlot("s2", "10:00", "11:00", nil, nil),
	)
	svc := newTestService(store)

	updated := existingSlot("s1", "09:00", "10:30", nil, nil)
	err := svc.UpdateSlot(context.Background(), &updated)

	var overlap *OverlapError
	assert.ErrorAs(t, err, &overlap)
	assert.Equal(t, "10:00", store.slots["s1"].EndTime)
}

func TestServiceDeleteSlot(t *testing.T) {
	store := newMockSlotStore(existingSlot("s1", "09:00", "10:00", nil, nil))
	svc := newTestService(store)

	require.NoError(t, svc.DeleteSlot(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, store.deleted)
}
