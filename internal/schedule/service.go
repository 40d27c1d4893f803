package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"medbook/internal/models"
)

// Validation errors for slot definitions.
var (
	ErrInvalidDayOfWeek = errors.New("day of week must be a weekday name (Monday..Sunday)")
	ErrInvalidTimeOrder = errors.New("start time must be before end time")
	ErrInvalidValidity  = errors.New("valid_from must not be after valid_to")
)

// SlotStore is the persistence surface the slot service needs.
type SlotStore interface {
	SlotSource
	CreateSlot(ctx context.Context, s *models.Slot) error
	GetSlot(ctx context.Context, id string) (*models.Slot, error)
	UpdateSlot(ctx context.Context, s *models.Slot) error
	DeleteSlot(ctx context.Context, id string) error
}

// Service manages slot definitions for doctors: validation, overlap checking
// and persistence.
type Service struct {
	store  SlotStore
	logger *zerolog.Logger
}

// NewService creates a slot service.
func NewService(store SlotStore, logger *zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateSlot validates and persists a new availability window. A window that
// overlaps an existing slot of the same doctor fails with *OverlapError.
func (s *Service) CreateSlot(ctx context.Context, slot *models.Slot) error {
	if err := validateSlot(slot); err != nil {
		return err
	}

	conflict, err := CheckOverlap(ctx, s.store, OverlapQuery{
		DoctorID:  slot.DoctorID,
		DayOfWeek: slot.DayOfWeek,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		ValidFrom: slot.ValidFrom,
		ValidTo:   slot.ValidTo,
	})
	if err != nil {
		return err
	}
	if conflict {
		return &OverlapError{DayOfWeek: slot.DayOfWeek}
	}

	slot.IsAvailable = true
	slot.Status = models.SlotAvailable
	if err := s.store.CreateSlot(ctx, slot); err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info().
		Str("slot_id", slot.ID).
		Str("doctor_id", slot.DoctorID).
		Str("day", string(slot.DayOfWeek)).
		Str("window", slot.StartTime+"-"+slot.EndTime).
		Msg("slot created")
	return nil
}

// UpdateSlot validates and persists changes to an existing slot, excluding
// the slot itself from the overlap check.
func (s *Service) UpdateSlot(ctx context.Context, slot *models.Slot) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	if _, err := s.store.GetSlot(ctx, slot.ID); err != nil {
		return err
	}

	conflict, err := CheckOverlap(ctx, s.store, OverlapQuery{
		DoctorID:      slot.DoctorID,
		DayOfWeek:     slot.DayOfWeek,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		ValidFrom:     slot.ValidFrom,
		ValidTo:       slot.ValidTo,
		ExcludeSlotID: slot.ID,
	})
	if err != nil {
		return err
	}
	if conflict {
		return &OverlapError{DayOfWeek: slot.DayOfWeek}
	}

	if err := s.store.UpdateSlot(ctx, slot); err != nil {
		return fmt.Errorf("update slot: %w", err)
	}

	s.logger.Info().Str("slot_id", slot.ID).Msg("slot updated")
	return nil
}

// DeleteSlot removes a slot on explicit doctor/admin action.
func (s *Service) DeleteSlot(ctx context.Context, id string) error {
	if err := s.store.DeleteSlot(ctx, id); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	s.logger.Info().Str("slot_id", id).Msg("slot deleted")
	return nil
}

func validateSlot(slot *models.Slot) error {
	if !models.IsValidDayOfWeek(slot.DayOfWeek) {
		return ErrInvalidDayOfWeek
	}
	if _, err := models.ParseClock(slot.StartTime); err != nil {
		return err
	}
	if _, err := models.ParseClock(slot.EndTime); err != nil {
		return err
	}
	if slot.StartTime >= slot.EndTime {
		return ErrInvalidTimeOrder
	}
	if slot.ValidFrom != nil {
		if _, err := models.ParseDate(*slot.ValidFrom); err != nil {
			return err
		}
	}
	if slot.ValidTo != nil {
		if _, err := models.ParseDate(*slot.ValidTo); err != nil {
			return err
		}
	}
	if slot.ValidFrom != nil && slot.ValidTo != nil && *slot.ValidFrom > *slot.ValidTo {
		return ErrInvalidValidity
	}
	return nil
}
