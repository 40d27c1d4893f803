package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"medbook/internal/models"
)

var (
	// ErrPatientNotFound is returned when a patient id does not resolve.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrDoctorNotFound is returned when a doctor id does not resolve.
	ErrDoctorNotFound = errors.New("doctor not found")
)

// CreatePatient persists a patient record.
func (db *DB) CreatePatient(ctx context.Context, p *models.Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO patients (id, name, email, phone) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, p.Email, p.Phone,
	)
	return err
}

// GetPatient returns a patient by id or ErrPatientNotFound.
func (db *DB) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	var p models.Patient
	var phone sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT id, name, email, phone FROM patients WHERE id = ?", id,
	).Scan(&p.ID, &p.Name, &p.Email, &phone)
	if err == sql.ErrNoRows {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		p.Phone = phone.String
	}
	return &p, nil
}

// CreateDoctor persists a doctor record.
func (db *DB) CreateDoctor(ctx context.Context, d *models.Doctor) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO doctors (id, name) VALUES (?, ?)",
		d.ID, d.Name,
	)
	return err
}

// GetDoctor returns a doctor by id or ErrDoctorNotFound.
func (db *DB) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	var d models.Doctor
	err := db.QueryRowContext(ctx,
		"SELECT id, name FROM doctors WHERE id = ?", id,
	).Scan(&d.ID, &d.Name)
	if err == sql.ErrNoRows {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
