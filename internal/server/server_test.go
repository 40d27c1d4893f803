package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbook/internal/booking"
	"medbook/internal/database"
	"medbook/internal/dispatch"
	"medbook/internal/events"
	"medbook/internal/models"
	"medbook/internal/notify"
	"medbook/internal/reminders"
	"medbook/internal/schedule"
)

type apiFixture struct {
	db     *database.DB
	router *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sink := notify.NewMemorySink()
	dispatcher := dispatch.New(dispatch.DefaultConfig(), &dispatch.LogEmailSender{Logger: &logger}, &dispatch.LogVoiceCaller{Logger: &logger}, &logger)
	scheduler := reminders.New(reminders.DefaultConfig(), db, dispatcher, &logger)
	t.Cleanup(scheduler.Stop)
	bus := events.NewBus()

	slots := schedule.NewService(db, &logger)
	bookings := booking.NewService(db, scheduler, dispatcher, sink, bus, &logger)
	statuses := booking.NewStatusMachine(db, scheduler, sink, bus, &logger)

	srv := New(db, slots, bookings, statuses, &logger)
	return &apiFixture{db: db, router: srv.Router()}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) seed(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.db.CreateDoctor(ctx, &models.Doctor{ID: "doc-1", Name: "Dr. Ivanova"}))
	require.NoError(t, f.db.CreatePatient(ctx, &models.Patient{ID: "pat-1", Name: "Anna", Email: "anna@example.com"}))

	w := f.do(t, http.MethodPost, "/slots", gin.H{
		"doctor_id":   "doc-1",
		"day_of_week": "Monday",
		"start_time":  "09:00",
		"end_time":    "10:00",
		"price":       150,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var slot models.Slot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slot))
	return slot.ID
}

func TestCreateSlotAndAvailability(t *testing.T) {
	f := newAPIFixture(t)
	slotID := f.seed(t)

	// 2026-09-07 is a Monday.
	w := f.do(t, http.MethodGet, "/doctors/doc-1/availability?date=2026-09-07", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Slots []models.Slot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, slotID, resp.Slots[0].ID)

	// Tuesday has nothing.
	w = f.do(t, http.MethodGet, "/doctors/doc-1/availability?date=2026-09-08", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Slots)
}

func TestCreateSlotOverlapConflict(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(t)

	w := f.do(t, http.MethodPost, "/slots", gin.H{
		"doctor_id":   "doc-1",
		"day_of_week": "Monday",
		"start_time":  "09:30",
		"end_time":    "10:30",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestBookingFlow(t *testing.T) {
	f := newAPIFixture(t)
	slotID := f.seed(t)

	w := f.do(t, http.MethodPost, "/appointments", gin.H{
		"DoctorID":  "doc-1",
		"SlotID":    slotID,
		"PatientID": "pat-1",
		"Date":      "2026-09-07",
		"Time":      "09:15",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var appt models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appt))
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, 150.0, appt.Fee)

	// Same occurrence again conflicts.
	w = f.do(t, http.MethodPost, "/appointments", gin.H{
		"DoctorID":  "doc-1",
		"SlotID":    slotID,
		"PatientID": "pat-1",
		"Date":      "2026-09-07",
		"Time":      "09:15",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Confirm, then complete; completion forces the payment status.
	w = f.do(t, http.MethodPatch, "/appointments/"+appt.ID+"/status", gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPatch, "/appointments/"+appt.ID+"/status", gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var completed models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &completed))
	assert.Equal(t, models.StatusCompleted, completed.Status)
	assert.Equal(t, models.PaymentPaid, completed.PaymentStatus)

	// Completed is terminal.
	w = f.do(t, http.MethodPatch, "/appointments/"+appt.ID+"/status", gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestBookingValidationResponses(t *testing.T) {
	f := newAPIFixture(t)
	slotID := f.seed(t)

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{
			name: "unknown slot",
			body: gin.H{"DoctorID": "doc-1", "SlotID": "missing", "PatientID": "pat-1", "Date": "2026-09-07", "Time": "09:15"},
			code: http.StatusNotFound,
		},
		{
			name: "wrong doctor",
			body: gin.H{"DoctorID": "doc-2", "SlotID": slotID, "PatientID": "pat-1", "Date": "2026-09-07", "Time": "09:15"},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "wrong weekday",
			body: gin.H{"DoctorID": "doc-1", "SlotID": slotID, "PatientID": "pat-1", "Date": "2026-09-08", "Time": "09:15"},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "off grid",
			body: gin.H{"DoctorID": "doc-1", "SlotID": slotID, "PatientID": "pat-1", "Date": "2026-09-07", "Time": "09:10"},
			code: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/appointments", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestAuditTrailEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	slotID := f.seed(t)

	w := f.do(t, http.MethodPost, "/appointments", gin.H{
		"DoctorID":  "doc-1",
		"SlotID":    slotID,
		"PatientID": "pat-1",
		"Date":      "2026-09-07",
		"Time":      "09:00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var appt models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appt))

	w = f.do(t, http.MethodGet, "/appointments/"+appt.ID+"/audit", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
