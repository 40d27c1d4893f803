// Package models defines the core records of the scheduling engine:
// availability slots, appointments and the people they belong to.
package models

import "time"

// DayOfWeek is a weekday name matching time.Weekday.String().
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

// DayOfWeekFromTime returns the DayOfWeek for a calendar date.
func DayOfWeekFromTime(t time.Time) DayOfWeek {
	return DayOfWeek(t.Weekday().String())
}

// IsValidDayOfWeek reports whether s names a weekday.
func IsValidDayOfWeek(s DayOfWeek) bool {
	switch s {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// SlotStatus is the lifecycle status of a slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

// Slot is a doctor-defined recurring availability window on a weekday,
// optionally bounded by a validity date range. Times are naive wall clock
// ("HH:MM"), dates are "YYYY-MM-DD"; the deployment is assumed to run in a
// single timezone.
type Slot struct {
	ID          string     `json:"id"`
	DoctorID    string     `json:"doctor_id"`
	DayOfWeek   DayOfWeek  `json:"day_of_week"`
	StartTime   string     `json:"start_time"` // "09:00"
	EndTime     string     `json:"end_time"`   // "10:00"
	Price       float64    `json:"price"`
	Status      SlotStatus `json:"status"`
	IsAvailable bool       `json:"is_available"`
	ValidFrom   *string    `json:"valid_from,omitempty"` // nil = unbounded
	ValidTo     *string    `json:"valid_to,omitempty"`   // nil = unbounded
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CoversDate reports whether the slot's validity window includes date
// (given as "YYYY-MM-DD"). Weekday matching is the caller's concern.
// ISO date strings compare lexicographically, so no parsing is needed.
func (s *Slot) CoversDate(date string) bool {
	switch {
	case s.ValidFrom == nil && s.ValidTo == nil:
		return true
	case s.ValidFrom != nil && s.ValidTo != nil:
		return *s.ValidFrom <= date && date <= *s.ValidTo
	case s.ValidFrom != nil:
		return *s.ValidFrom <= date
	default:
		return date <= *s.ValidTo
	}
}

// AppointmentStatus is the lifecycle status of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// IsValidStatus reports whether s is a known appointment status.
func IsValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted from s.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// PaymentStatus tracks the payment side of an appointment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Appointment is a booked occurrence of a slot on a concrete date.
// Fee is denormalized from the slot price at booking time and immutable
// afterwards; the pair (DoctorID, Date, Time) is unique.
type Appointment struct {
	ID            string            `json:"id"`
	DoctorID      string            `json:"doctor_id"`
	PatientID     string            `json:"patient_id"`
	SlotID        string            `json:"slot_id"`
	Date          string            `json:"date"` // "2026-09-07"
	Time          string            `json:"time"` // "09:15"
	Fee           float64           `json:"fee"`
	Status        AppointmentStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// StartsAt combines Date and Time into a concrete local instant.
func (a *Appointment) StartsAt() (time.Time, error) {
	return CombineDateTime(a.Date, a.Time)
}

// Patient holds the contact details the reminder side effects need.
type Patient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"` // empty = no voice-call reminders
}

// Doctor is the owner of slots and appointments.
type Doctor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
