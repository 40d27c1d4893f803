package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"medbook/internal/database"
	"medbook/internal/events"
	"medbook/internal/metrics"
	"medbook/internal/models"
	"medbook/internal/notify"
)

var (
	// ErrAppointmentNotFound is returned when the appointment does not exist.
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrInvalidStatusValue is returned for an unknown target status or a
	// transition the lifecycle does not permit.
	ErrInvalidStatusValue = errors.New("invalid status value")
	// ErrAlreadyCancelled is returned for a repeated cancellation. It carries
	// no side effects; the first cancellation already ran them.
	ErrAlreadyCancelled = errors.New("appointment is already cancelled")
)

// transitions is the appointment lifecycle. Cancelled and completed are
// terminal; there is no reopening.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusCancelled, models.StatusCompleted},
	models.StatusCancelled: {},
	models.StatusCompleted: {},
}

// CanTransition reports whether from -> to is a permitted transition.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusStore is the persistence surface of the status machine. The update
// is guarded: it applies only if the persisted status still equals from, and
// reports whether a row changed.
type StatusStore interface {
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus, forcePaid bool) (bool, error)
}

// ReminderCanceller removes pending reminder jobs for an appointment.
type ReminderCanceller interface {
	CancelReminders(appointmentID string) int
}

// StatusMachine drives appointment status transitions.
type StatusMachine struct {
	store     StatusStore
	reminders ReminderCanceller
	sink      notify.Sink
	bus       *events.Bus
	logger    *zerolog.Logger
}

// NewStatusMachine creates a status machine.
func NewStatusMachine(store StatusStore, reminders ReminderCanceller, sink notify.Sink, bus *events.Bus, logger *zerolog.Logger) *StatusMachine {
	return &StatusMachine{
		store:     store,
		reminders: reminders,
		sink:      sink,
		bus:       bus,
		logger:    logger,
	}
}

// statusUpdateAttempts bounds the retry loop when a concurrent transition
// commits between our read and our guarded update.
const statusUpdateAttempts = 3

// Transition moves the appointment to status to, re-validating the permitted
// transitions against the persisted status at commit time. Completing an
// appointment also forces its payment status to paid. Side effects (patient
// notification, reminder cancellation) run only after a committed change.
func (m *StatusMachine) Transition(ctx context.Context, id string, to models.AppointmentStatus) (*models.Appointment, error) {
	if !models.IsValidStatus(to) {
		return nil, ErrInvalidStatusValue
	}

	for attempt := 0; attempt < statusUpdateAttempts; attempt++ {
		appt, err := m.store.GetAppointment(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrAppointmentNotFound) {
				return nil, ErrAppointmentNotFound
			}
			return nil, fmt.Errorf("load appointment: %w", err)
		}

		from := appt.Status
		if to == models.StatusCancelled && from == models.StatusCancelled {
			return nil, ErrAlreadyCancelled
		}
		if !CanTransition(from, to) {
			return nil, ErrInvalidStatusValue
		}

		forcePaid := to == models.StatusCompleted
		ok, err := m.store.UpdateAppointmentStatus(ctx, id, from, to, forcePaid)
		if err != nil {
			return nil, fmt.Errorf("update status: %w", err)
		}
		if !ok {
			// A concurrent transition won; re-read and re-validate.
			continue
		}

		appt.Status = to
		if forcePaid {
			appt.PaymentStatus = models.PaymentPaid
		}

		metrics.IncStatusTransition(string(to))
		m.logger.Info().
			Str("appointment_id", id).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("appointment status changed")

		m.bus.Publish(events.Event{
			Type:           events.TypeAppointmentStatusChanged,
			Appointment:    *appt,
			PreviousStatus: from,
		})
		m.runTransitionSideEffects(ctx, appt)

		return appt, nil
	}

	return nil, fmt.Errorf("update status %s: transition contended", id)
}

func (m *StatusMachine) runTransitionSideEffects(ctx context.Context, appt *models.Appointment) {
	if appt.Status == models.StatusCancelled {
		m.reminders.CancelReminders(appt.ID)
	}

	n := notify.Notification{
		RecipientID:   appt.PatientID,
		RecipientRole: "patient",
		Message:       fmt.Sprintf("Your appointment on %s at %s is now %s.", appt.Date, appt.Time, appt.Status),
	}
	if err := m.sink.CreateNotification(ctx, n); err != nil {
		m.logger.Error().Err(err).Str("patient_id", appt.PatientID).Msg("status side effects: patient notification")
	}
}
