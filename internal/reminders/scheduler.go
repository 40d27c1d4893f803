// Package reminders schedules time-triggered appointment reminders: an email
// the day before, an email shortly before, and a voice call for patients with
// a phone on file. Jobs live in a process-local registry owned by the
// Scheduler instance; they are best-effort and do not survive a restart.
package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"medbook/internal/metrics"
	"medbook/internal/models"
)

// Timeframe identifies which reminder of an appointment a job belongs to.
// Registry keys are "{appointmentID}-{timeframe}".
type Timeframe string

const (
	TimeframeDayBefore Timeframe = "24h"
	TimeframeHalfHour  Timeframe = "30m"
	TimeframeVoice     Timeframe = "voice"
)

// AppointmentStore re-reads appointment and patient state at fire time.
type AppointmentStore interface {
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	GetPatient(ctx context.Context, id string) (*models.Patient, error)
}

// Dispatcher delivers the reminder to the patient.
type Dispatcher interface {
	SendEmailReminder(ctx context.Context, patient *models.Patient, appt *models.Appointment) error
	PlaceReminderCall(ctx context.Context, patient *models.Patient, appt *models.Appointment) error
}

// Config holds reminder lead times. Tests compress these to milliseconds.
type Config struct {
	// FirstLead is how long before the appointment the first reminder fires.
	FirstLead time.Duration
	// SecondLead is how long before the appointment the second reminder fires.
	SecondLead time.Duration
	// VoiceLead is how long before the appointment the voice call is placed.
	VoiceLead time.Duration
	// DispatchTimeout bounds the store reads and sends of one firing job.
	DispatchTimeout time.Duration
}

// DefaultConfig returns the production lead times.
func DefaultConfig() Config {
	return Config{
		FirstLead:       24 * time.Hour,
		SecondLead:      30 * time.Minute,
		VoiceLead:       30 * time.Minute,
		DispatchTimeout: 30 * time.Second,
	}
}

type job struct {
	timer     *time.Timer
	cancelled chan struct{}
}

// Scheduler owns the reminder job registry. It is injected wherever needed;
// there is no ambient global state.
type Scheduler struct {
	config     Config
	store      AppointmentStore
	dispatcher Dispatcher
	logger     *zerolog.Logger

	mu      sync.Mutex
	jobs    map[string]*job
	stopped bool

	// now is swappable in tests.
	now func() time.Time
}

// New creates a reminder scheduler.
func New(config Config, store AppointmentStore, dispatcher Dispatcher, logger *zerolog.Logger) *Scheduler {
	if config.DispatchTimeout <= 0 {
		config.DispatchTimeout = 30 * time.Second
	}
	return &Scheduler{
		config:     config,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		jobs:       make(map[string]*job),
		now:        time.Now,
	}
}

func jobKey(appointmentID string, tf Timeframe) string {
	return appointmentID + "-" + string(tf)
}

// ScheduleReminders registers the reminder jobs for an appointment. Fire
// times already in the past are skipped silently. Returns the number of jobs
// registered.
func (s *Scheduler) ScheduleReminders(appt *models.Appointment) int {
	startsAt, err := appt.StartsAt()
	if err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appt.ID).Msg("cannot schedule reminders")
		return 0
	}

	count := 0
	if s.schedule(appt.ID, TimeframeDayBefore, startsAt.Add(-s.config.FirstLead)) {
		count++
	}
	if s.schedule(appt.ID, TimeframeHalfHour, startsAt.Add(-s.config.SecondLead)) {
		count++
	}
	return count
}

// schedule registers a single one-shot job. Re-scheduling an existing key
// replaces the previous timer.
func (s *Scheduler) schedule(appointmentID string, tf Timeframe, fireAt time.Time) bool {
	delay := fireAt.Sub(s.now())
	if delay <= 0 {
		metrics.IncRemindersSkipped()
		s.logger.Debug().
			Str("appointment_id", appointmentID).
			Str("timeframe", string(tf)).
			Time("fire_at", fireAt).
			Msg("reminder fire time already passed, skipping")
		return false
	}

	key := jobKey(appointmentID, tf)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if prev, ok := s.jobs[key]; ok {
		prev.timer.Stop()
		close(prev.cancelled)
	}

	j := &job{cancelled: make(chan struct{})}
	j.timer = time.AfterFunc(delay, func() {
		s.fire(key, appointmentID, tf, j.cancelled)
	})
	s.jobs[key] = j

	metrics.IncRemindersScheduled()
	s.logger.Info().
		Str("appointment_id", appointmentID).
		Str("timeframe", string(tf)).
		Time("fire_at", fireAt).
		Msg("reminder scheduled")
	return true
}

// fire runs in the timer goroutine. It removes itself from the registry,
// re-validates cancellation, re-reads the appointment and only then sends.
// After firing begins, CancelReminders no longer affects this occurrence.
func (s *Scheduler) fire(key, appointmentID string, tf Timeframe, cancelled chan struct{}) {
	s.mu.Lock()
	if s.jobs[key] != nil && s.jobs[key].cancelled == cancelled {
		delete(s.jobs, key)
	}
	s.mu.Unlock()

	select {
	case <-cancelled:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.DispatchTimeout)
	defer cancel()

	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("reminder: re-read appointment")
		return
	}
	if appt.Status == models.StatusCancelled {
		s.logger.Debug().Str("appointment_id", appointmentID).Msg("reminder: appointment cancelled, aborting")
		return
	}

	patient, err := s.store.GetPatient(ctx, appt.PatientID)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", appt.PatientID).Msg("reminder: load patient")
		return
	}

	switch tf {
	case TimeframeVoice:
		if err := s.dispatcher.PlaceReminderCall(ctx, patient, appt); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("reminder: voice call failed")
			return
		}
	default:
		if err := s.dispatcher.SendEmailReminder(ctx, patient, appt); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("reminder: email failed")
			return
		}
	}
	metrics.IncReminderFired(string(tf))

	// The day-before job arms the voice call for patients with a phone on
	// file; the call re-validates cancellation at its own fire time.
	if tf == TimeframeDayBefore && patient.Phone != "" {
		if startsAt, err := appt.StartsAt(); err == nil {
			s.schedule(appt.ID, TimeframeVoice, startsAt.Add(-s.config.VoiceLead))
		}
	}
}

// CancelReminders stops and removes every pending job for an appointment and
// returns how many were cancelled. Idempotent; jobs that have already begun
// firing re-validate against the store instead.
func (s *Scheduler) CancelReminders(appointmentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, tf := range []Timeframe{TimeframeDayBefore, TimeframeHalfHour, TimeframeVoice} {
		key := jobKey(appointmentID, tf)
		if j, ok := s.jobs[key]; ok {
			j.timer.Stop()
			close(j.cancelled)
			delete(s.jobs, key)
			metrics.IncRemindersCancelled()
			count++
		}
	}
	return count
}

// PendingJobs returns the number of registered jobs.
func (s *Scheduler) PendingJobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Stop cancels all pending jobs and refuses new ones. Called at shutdown;
// pending reminders are lost, which is the documented durability limit of
// the in-process registry.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, j := range s.jobs {
		j.timer.Stop()
		close(j.cancelled)
		delete(s.jobs, key)
	}
	s.logger.Info().Msg("reminder scheduler stopped")
}
