// Package dispatch sends reminder and confirmation messages to patients
// through pluggable email and voice-call senders. Delivery is best-effort:
// failures are logged and counted, never surfaced into the booking or
// status-transition result.
package dispatch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"medbook/internal/metrics"
	"medbook/internal/models"
)

// EmailSender delivers an email message to a recipient address.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// VoiceCaller places an automated reminder call to a phone number.
type VoiceCaller interface {
	PlaceCall(ctx context.Context, phone, message string) error
}

// Config holds dispatcher settings.
type Config struct {
	// Rate is the number of outbound messages allowed per second.
	Rate float64
	// Burst is the short-term burst allowance.
	Burst int
}

// DefaultConfig returns conservative outbound limits.
func DefaultConfig() Config {
	return Config{Rate: 10, Burst: 20}
}

// Dispatcher rate-limits and routes outbound patient messages.
type Dispatcher struct {
	email   EmailSender
	voice   VoiceCaller
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// New creates a dispatcher over the given senders.
func New(cfg Config, email EmailSender, voice VoiceCaller, logger *zerolog.Logger) *Dispatcher {
	if cfg.Rate <= 0 {
		cfg = DefaultConfig()
	}
	return &Dispatcher{
		email:   email,
		voice:   voice,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		logger:  logger,
	}
}

// SendBookingConfirmation emails the patient that the booking was created.
func (d *Dispatcher) SendBookingConfirmation(ctx context.Context, patient *models.Patient, appt *models.Appointment) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	subject := "Appointment confirmed"
	body := fmt.Sprintf("Your appointment on %s at %s has been booked. Fee: %.2f.",
		appt.Date, appt.Time, appt.Fee)
	if err := d.email.SendEmail(ctx, patient.Email, subject, body); err != nil {
		metrics.IncDispatchFailed("email")
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

// SendEmailReminder emails the patient about an upcoming appointment.
func (d *Dispatcher) SendEmailReminder(ctx context.Context, patient *models.Patient, appt *models.Appointment) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	subject := "Appointment reminder"
	body := fmt.Sprintf("Reminder: you have an appointment on %s at %s.", appt.Date, appt.Time)
	if err := d.email.SendEmail(ctx, patient.Email, subject, body); err != nil {
		metrics.IncDispatchFailed("email")
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

// PlaceReminderCall places a voice-call reminder shortly before the
// appointment. No-op when the patient has no phone on file.
func (d *Dispatcher) PlaceReminderCall(ctx context.Context, patient *models.Patient, appt *models.Appointment) error {
	if patient.Phone == "" {
		return nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	message := fmt.Sprintf("This is a reminder for your appointment today at %s.", appt.Time)
	if err := d.voice.PlaceCall(ctx, patient.Phone, message); err != nil {
		metrics.IncDispatchFailed("voice")
		return fmt.Errorf("place call: %w", err)
	}
	return nil
}

// LogEmailSender writes the email to the log instead of sending it. Stands
// in for the real SMTP collaborator, which lives outside this core.
type LogEmailSender struct {
	Logger *zerolog.Logger
}

func (s *LogEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Logger.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email dispatched")
	return nil
}

// LogVoiceCaller writes the call to the log instead of placing it.
type LogVoiceCaller struct {
	Logger *zerolog.Logger
}

func (s *LogVoiceCaller) PlaceCall(_ context.Context, phone, message string) error {
	s.Logger.Info().Str("phone", phone).Str("message", message).Msg("voice call dispatched")
	return nil
}
