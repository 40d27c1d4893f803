package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"medbook/internal/models"
)

// ErrSlotNotFound is returned when a slot id does not resolve.
var ErrSlotNotFound = errors.New("slot not found")

const slotColumns = `id, doctor_id, day_of_week, start_time, end_time, price,
	status, is_available, valid_from, valid_to, created_at, updated_at`

// CreateSlot persists a new slot. A missing ID is generated.
func (db *DB) CreateSlot(ctx context.Context, s *models.Slot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = models.SlotAvailable
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO slots (id, doctor_id, day_of_week, start_time, end_time,
			price, status, is_available, valid_from, valid_to, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.DoctorID, s.DayOfWeek, s.StartTime, s.EndTime,
		s.Price, s.Status, s.IsAvailable, s.ValidFrom, s.ValidTo, now, now,
	)
	return err
}

// GetSlot returns a slot by id or ErrSlotNotFound.
func (db *DB) GetSlot(ctx context.Context, id string) (*models.Slot, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = ?`, id)
	s, err := scanSlot(row)
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetSlotsByDoctorAndDay returns all slots of a doctor on a given weekday.
func (db *DB) GetSlotsByDoctorAndDay(ctx context.Context, doctorID string, day models.DayOfWeek) ([]models.Slot, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM slots
		WHERE doctor_id = ? AND day_of_week = ?
		ORDER BY start_time`,
		doctorID, day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	return slots, rows.Err()
}

// UpdateSlot updates time, price and validity bounds of an existing slot.
func (db *DB) UpdateSlot(ctx context.Context, s *models.Slot) error {
	s.UpdatedAt = time.Now()
	res, err := db.ExecContext(ctx, `
		UPDATE slots SET day_of_week = ?, start_time = ?, end_time = ?,
			price = ?, valid_from = ?, valid_to = ?, updated_at = ?
		WHERE id = ?`,
		s.DayOfWeek, s.StartTime, s.EndTime,
		s.Price, s.ValidFrom, s.ValidTo, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// MarkSlotBooked flips a slot to booked/unavailable as part of the booking
// transition. The slot row itself is never deleted by the booking flow.
func (db *DB) MarkSlotBooked(ctx context.Context, slotID string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE slots SET status = ?, is_available = 0, updated_at = ?
		WHERE id = ?`,
		models.SlotBooked, time.Now(), slotID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// DeleteSlot removes a slot. Explicit doctor/admin action only.
func (db *DB) DeleteSlot(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM slots WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(r rowScanner) (*models.Slot, error) {
	var s models.Slot
	var validFrom, validTo sql.NullString
	err := r.Scan(
		&s.ID, &s.DoctorID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.Price,
		&s.Status, &s.IsAvailable, &validFrom, &validTo, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if validFrom.Valid {
		s.ValidFrom = &validFrom.String
	}
	if validTo.Valid {
		s.ValidTo = &validTo.String
	}
	return &s, nil
}
