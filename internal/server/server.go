// Package server exposes the scheduling engine over a small JSON HTTP API.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"medbook/internal/booking"
	"medbook/internal/database"
	"medbook/internal/models"
	"medbook/internal/schedule"
)

// Server wires the HTTP routes to the domain services.
type Server struct {
	db       *database.DB
	slots    *schedule.Service
	bookings *booking.Service
	statuses *booking.StatusMachine
	logger   *zerolog.Logger
}

// New creates a Server.
func New(db *database.DB, slots *schedule.Service, bookings *booking.Service, statuses *booking.StatusMachine, logger *zerolog.Logger) *Server {
	return &Server{
		db:       db,
		slots:    slots,
		bookings: bookings,
		statuses: statuses,
		logger:   logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/doctors", s.handleCreateDoctor)
	r.POST("/patients", s.handleCreatePatient)

	r.POST("/slots", s.handleCreateSlot)
	r.GET("/slots/:id", s.handleGetSlot)
	r.PUT("/slots/:id", s.handleUpdateSlot)
	r.DELETE("/slots/:id", s.handleDeleteSlot)

	r.GET("/doctors/:id/availability", s.handleAvailability)

	r.POST("/appointments", s.handleBook)
	r.GET("/appointments/:id", s.handleGetAppointment)
	r.PATCH("/appointments/:id/status", s.handleTransition)
	r.GET("/appointments/:id/audit", s.handleAuditTrail)

	return r
}

func (s *Server) handleCreateDoctor(c *gin.Context) {
	var d models.Doctor
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.db.CreateDoctor(c.Request.Context(), &d); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (s *Server) handleCreatePatient(c *gin.Context) {
	var p models.Patient
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.db.CreatePatient(c.Request.Context(), &p); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleCreateSlot(c *gin.Context) {
	var slot models.Slot
	if err := c.ShouldBindJSON(&slot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.slots.CreateSlot(c.Request.Context(), &slot); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (s *Server) handleGetSlot(c *gin.Context) {
	slot, err := s.db.GetSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (s *Server) handleUpdateSlot(c *gin.Context) {
	var slot models.Slot
	if err := c.ShouldBindJSON(&slot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	slot.ID = c.Param("id")
	if err := s.slots.UpdateSlot(c.Request.Context(), &slot); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (s *Server) handleDeleteSlot(c *gin.Context) {
	if err := s.slots.DeleteSlot(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAvailability(c *gin.Context) {
	date, err := models.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	slots, err := schedule.SlotsForDate(c.Request.Context(), s.db, c.Param("id"), date)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (s *Server) handleBook(c *gin.Context) {
	var req booking.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	appt, err := s.bookings.Book(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (s *Server) handleGetAppointment(c *gin.Context) {
	appt, err := s.db.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (s *Server) handleTransition(c *gin.Context) {
	var body struct {
		Status models.AppointmentStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	appt, err := s.statuses.Transition(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (s *Server) handleAuditTrail(c *gin.Context) {
	entries, err := s.db.ListAuditByAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// fail translates domain errors into HTTP responses.
func (s *Server) fail(c *gin.Context, err error) {
	var overlap *schedule.OverlapError

	switch {
	case errors.Is(err, database.ErrSlotNotFound),
		errors.Is(err, database.ErrAppointmentNotFound),
		errors.Is(err, database.ErrPatientNotFound),
		errors.Is(err, database.ErrDoctorNotFound),
		errors.Is(err, booking.ErrSlotNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &overlap),
		errors.Is(err, booking.ErrSlotAlreadyBooked),
		errors.Is(err, booking.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrSlotOwnershipMismatch),
		errors.Is(err, booking.ErrDayMismatch),
		errors.Is(err, booking.ErrTimeOutOfRange),
		errors.Is(err, booking.ErrTimeMisaligned),
		errors.Is(err, booking.ErrInvalidStatusValue),
		errors.Is(err, schedule.ErrInvalidDayOfWeek),
		errors.Is(err, schedule.ErrInvalidTimeOrder),
		errors.Is(err, schedule.ErrInvalidValidity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
