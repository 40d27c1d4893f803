// Package booking validates and reserves appointments against a doctor's
// availability slots and drives their status lifecycle afterwards.
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

// GridMinutes is the booking grid: a requested time must sit an exact
// multiple of this many minutes after the slot start.
const GridMinutes = 15

// Enumerable booking failures, in validation order. All are validation or
// conflict errors surfaced synchronously to the caller; none is retried here.
var (
	ErrSlotNotFound          = errors.New("slot not found")
	ErrSlotOwnershipMismatch = errors.New("slot does not belong to this doctor")
	ErrDayMismatch           = errors.New("date does not fall on the slot's day of week")
	ErrTimeOutOfRange        = errors.New("time is outside the slot window")
	ErrTimeMisaligned        = errors.New("time is not aligned to the booking grid")
	ErrSlotAlreadyBooked     = errors.New("slot is already booked for this time")
)

// Store is the persistence surface the booking service needs. The store's
// uniqueness constraint on (doctor, date, time) is the true double-booking
// guard; FindAppointment is only a fast-fail pre-check.
type Store interface {
	GetSlot(ctx context.Context, id string) (*models.Slot, error)
	FindAppointment(ctx context.Context, doctorID, date, clock string) (*models.Appointment, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	MarkSlotBooked(ctx context.Context, slotID string) error
	GetPatient(ctx context.Context, id string) (*models.Patient, error)
}

// ReminderScheduler registers reminder jobs for a booked appointment.
type ReminderScheduler interface {
	ScheduleReminders(appt *models.Appointment) int
}

// ConfirmationSender emails the patient after a successful booking.
type ConfirmationSender interface {
	SendBookingConfirmation(ctx context.Context, patient *models.Patient, appt *models.Appointment) error
}

// Request is a patient's booking request for a slot occurrence.
type Request struct {
	DoctorID  string
	SlotID    string
	PatientID string
	Date      string // "YYYY-MM-DD"
	Time      string // "HH:MM"
}

// Service books appointments.
type Service struct {
	store     Store
	reminders ReminderScheduler
	sender    ConfirmationSender
	sink      notify.Sink
	bus       *events.Bus
	logger    *zerolog.Logger
}

// NewService creates a booking service.
func NewService(store Store, reminders ReminderScheduler, sender ConfirmationSender, sink notify.Sink, bus *events.Bus, logger *zerolog.Logger) *Service {
	return &Service{
		store:     store,
		reminders: reminders,
		sender:    sender,
		sink:      sink,
		bus:       bus,
		logger:    logger,
	}
}

// Book validates the request in a fixed fail-fast order, reserves the slot
// occurrence and creates the appointment with the fee copied from the slot's
// current price. Side effects after the commit (confirmation email, reminder
// scheduling, doctor notification) are best-effort: their failures are logged
// and never roll back the appointment.
func (s *Service) Book(ctx context.Context, req Request) (*models.Appointment, error) {
	slot, err := s.store.GetSlot(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, database.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	if slot.DoctorID != req.DoctorID {
		return nil, ErrSlotOwnershipMismatch
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if models.DayOfWeekFromTime(date) != slot.DayOfWeek {
		return nil, ErrDayMismatch
	}

	requested, err := models.ParseClock(req.Time)
	if err != nil {
		return nil, err
	}
	start, err := models.ParseClock(slot.StartTime)
	if err != nil {
		return nil, fmt.Errorf("slot start time: %w", err)
	}
	end, err := models.ParseClock(slot.EndTime)
	if err != nil {
		return nil, fmt.Errorf("slot end time: %w", err)
	}
	if requested < start || requested > end {
		return nil, ErrTimeOutOfRange
	}
	if (requested-start)%GridMinutes != 0 {
		return nil, ErrTimeMisaligned
	}

	// Fast-fail pre-check; the unique index below is the source of truth.
	existing, err := s.store.FindAppointment(ctx, req.DoctorID, req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("check existing appointment: %w", err)
	}
	if existing != nil {
		metrics.IncBookingConflict()
		return nil, ErrSlotAlreadyBooked
	}

	appt := &models.Appointment{
		DoctorID:      req.DoctorID,
		PatientID:     req.PatientID,
		SlotID:        slot.ID,
		Date:          req.Date,
		Time:          req.Time,
		Fee:           slot.Price,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
	}
	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		if errors.Is(err, database.ErrDuplicateAppointment) {
			// Lost the race against a concurrent booking.
			metrics.IncBookingConflict()
			return nil, ErrSlotAlreadyBooked
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	if err := s.store.MarkSlotBooked(ctx, slot.ID); err != nil {
		// The appointment is committed; the slot flag is advisory.
		s.logger.Error().Err(err).Str("slot_id", slot.ID).Msg("mark slot booked")
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("doctor_id", appt.DoctorID).
		Str("patient_id", appt.PatientID).
		Str("date", appt.Date).
		Str("time", appt.Time).
		Msg("appointment booked")

	s.bus.Publish(events.Event{Type: events.TypeAppointmentBooked, Appointment: *appt})
	s.runBookingSideEffects(ctx, appt)

	return appt, nil
}

// runBookingSideEffects performs the post-commit notifications. Failures are
// logged and surfaced only via secondary channels.
func (s *Service) runBookingSideEffects(ctx context.Context, appt *models.Appointment) {
	patient, err := s.store.GetPatient(ctx, appt.PatientID)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", appt.PatientID).Msg("booking side effects: load patient")
	} else {
		if err := s.sender.SendBookingConfirmation(ctx, patient, appt); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", appt.ID).Msg("booking side effects: confirmation email")
		}
	}

	s.reminders.ScheduleReminders(appt)

	n := notify.Notification{
		RecipientID:   appt.DoctorID,
		RecipientRole: "doctor",
		Message:       fmt.Sprintf("New appointment booked for %s at %s.", appt.Date, appt.Time),
	}
	if err := s.sink.CreateNotification(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("doctor_id", appt.DoctorID).Msg("booking side effects: doctor notification")
	}
}
