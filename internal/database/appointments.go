package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"medbook/internal/models"
)

var (
	// ErrAppointmentNotFound is returned when an appointment id does not resolve.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrDuplicateAppointment is returned when the (doctor_id, date, time)
	// uniqueness constraint rejects an insert. This is the authoritative
	// double-booking signal; callers map it to their conflict error.
	ErrDuplicateAppointment = errors.New("appointment already exists for this doctor, date and time")
)

const appointmentColumns = `id, doctor_id, patient_id, slot_id, date, time,
	fee, status, payment_status, created_at, updated_at`

// CreateAppointment inserts a new appointment. A lost race on the
// (doctor_id, date, time) unique index surfaces as ErrDuplicateAppointment.
func (db *DB) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, slot_id, date, time,
			fee, status, payment_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DoctorID, a.PatientID, a.SlotID, a.Date, a.Time,
		a.Fee, a.Status, a.PaymentStatus, now, now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateAppointment
		}
		return err
	}
	return nil
}

// GetAppointment returns an appointment by id or ErrAppointmentNotFound.
func (db *DB) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindAppointment looks up an appointment by the (doctor, date, time) key.
// Returns (nil, nil) when none exists; used as the booking pre-check.
func (db *DB) FindAppointment(ctx context.Context, doctorID, date, clock string) (*models.Appointment, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		WHERE doctor_id = ? AND date = ? AND time = ?`,
		doctorID, date, clock,
	)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAppointmentStatus applies a guarded status transition: the row is
// updated only if its persisted status still equals from, re-validating the
// precondition at commit time. Returns true when the transition was applied.
// When forcePaid is set the payment status is forced to paid in the same
// statement.
func (db *DB) UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus, forcePaid bool) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if forcePaid {
		res, err = db.ExecContext(ctx, `
			UPDATE appointments SET status = ?, payment_status = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			to, models.PaymentPaid, time.Now(), id, from,
		)
	} else {
		res, err = db.ExecContext(ctx, `
			UPDATE appointments SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			to, time.Now(), id, from,
		)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetAppointmentsByDoctor returns all appointments of a doctor on a date.
func (db *DB) GetAppointmentsByDoctor(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		WHERE doctor_id = ? AND date = ?
		ORDER BY time`,
		doctorID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}

func scanAppointment(r rowScanner) (*models.Appointment, error) {
	var a models.Appointment
	err := r.Scan(
		&a.ID, &a.DoctorID, &a.PatientID, &a.SlotID, &a.Date, &a.Time,
		&a.Fee, &a.Status, &a.PaymentStatus, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
