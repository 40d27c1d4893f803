// Package metrics exposes Prometheus counters for the scheduling engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "bookings_created_total",
			Help:      "Count of appointments successfully booked.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "booking_conflicts_total",
			Help:      "Count of bookings rejected because the time was already taken.",
		},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "status_transitions_total",
			Help:      "Count of appointment status transitions by target status.",
		},
		[]string{"to"},
	)

	remindersScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "reminders_scheduled_total",
			Help:      "Count of reminder jobs registered.",
		},
	)

	remindersFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "reminders_fired_total",
			Help:      "Count of reminder jobs fired by timeframe.",
		},
		[]string{"timeframe"},
	)

	remindersCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "reminders_cancelled_total",
			Help:      "Count of reminder jobs cancelled before firing.",
		},
	)

	remindersSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "reminders_skipped_total",
			Help:      "Count of reminder jobs skipped because the fire time had passed.",
		},
	)

	dispatchFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "dispatch_failed_total",
			Help:      "Count of failed outbound deliveries by channel.",
		},
		[]string{"channel"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingsCreated, bookingConflicts, statusTransitions,
			remindersScheduled, remindersFired, remindersCancelled,
			remindersSkipped, dispatchFailed,
		)
	})
}

func IncBookingCreated() { bookingsCreated.Inc() }

func IncBookingConflict() { bookingConflicts.Inc() }

func IncStatusTransition(to string) { statusTransitions.WithLabelValues(to).Inc() }

func IncRemindersScheduled() { remindersScheduled.Inc() }

func IncReminderFired(tf string) { remindersFired.WithLabelValues(tf).Inc() }

func IncRemindersCancelled() { remindersCancelled.Inc() }

func IncRemindersSkipped() { remindersSkipped.Inc() }

func IncDispatchFailed(channel string) { dispatchFailed.WithLabelValues(channel).Inc() }
