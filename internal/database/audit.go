package database

import (
	"context"
	"time"
)

// AuditEntry records who did what to which appointment.
type AuditEntry struct {
	ID            int64
	Actor         string
	Action        string
	AppointmentID string
	Detail        string
	CreatedAt     time.Time
}

// WriteAudit appends an audit entry. Best-effort: callers log failures and
// never fail the operation being audited.
func (db *DB) WriteAudit(ctx context.Context, e *AuditEntry) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (actor, action, appointment_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.Actor, e.Action, e.AppointmentID, e.Detail, time.Now(),
	)
	return err
}

// ListAuditByAppointment returns the audit trail for one appointment,
// newest first.
func (db *DB) ListAuditByAppointment(ctx context.Context, appointmentID string) ([]AuditEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, actor, action, appointment_id, detail, created_at
		FROM audit_log WHERE appointment_id = ?
		ORDER BY created_at DESC, id DESC`,
		appointmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.AppointmentID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
