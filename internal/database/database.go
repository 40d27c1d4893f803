// Package database provides the SQLite-backed store for slots, appointments
// and the people records the scheduling engine depends on. The UNIQUE index
// on (doctor_id, date, time) is the single source of truth for double-booking
// conflicts; application-level pre-checks are only a fast-fail optimization.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the scheduling engine.
type DB struct {
	*sql.DB
}

// New opens the database at path and runs migrations. WAL mode and a busy
// timeout let concurrent writers contend on the unique indexes instead of
// failing with a locked database.
func New(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS doctors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS patients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Recurring availability windows. Times are wall-clock "HH:MM",
		// validity bounds are "YYYY-MM-DD" or NULL for unbounded.
		`CREATE TABLE IF NOT EXISTS slots (
			id TEXT PRIMARY KEY,
			doctor_id TEXT NOT NULL,
			day_of_week TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'available',
			is_available BOOLEAN NOT NULL DEFAULT 1,
			valid_from TEXT,
			valid_to TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (doctor_id) REFERENCES doctors(id)
		)`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			doctor_id TEXT NOT NULL,
			patient_id TEXT NOT NULL,
			slot_id TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			fee REAL NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			payment_status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (doctor_id) REFERENCES doctors(id),
			FOREIGN KEY (patient_id) REFERENCES patients(id),
			FOREIGN KEY (slot_id) REFERENCES slots(id)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			appointment_id TEXT,
			detail TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Double-booking guard: at most one appointment per doctor per
		// exact date/time. Concurrent bookings race on this index.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_doctor_datetime
			ON appointments(doctor_id, date, time)`,

		`CREATE INDEX IF NOT EXISTS idx_slots_doctor_day ON slots(doctor_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_appointment ON audit_log(appointment_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
