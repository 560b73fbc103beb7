package appointment

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/internal/service/scheduling"
	"github.com/fisioflow/agenda-api/pkg/errors"
	"github.com/fisioflow/agenda-api/pkg/httputil"
)

// defaultListWindow is applied when the caller omits the date range.
const defaultListWindow = 30 * 24 * time.Hour

func bindDuration(raw string, out *int) error {
	d, err := strconv.Atoi(raw)
	if err != nil {
		return errors.NewBadRequest("invalid duration, expected minutes", err)
	}
	if d < 15 || d > 480 {
		return errors.NewBadRequest("duration must be between 15 and 480 minutes", nil)
	}
	*out = d
	return nil
}

// Scheduler is the slice of the scheduling service this handler consumes.
type Scheduler interface {
	CheckAvailability(ctx context.Context, p scheduling.CheckParams) (*model.AvailabilityResult, error)
	CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error)
	RescheduleAppointment(ctx context.Context, id uuid.UUID, newDate time.Time) (*model.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	GetTherapistAppointments(ctx context.Context, therapistID uuid.UUID, start, end time.Time) ([]*model.Appointment, error)
	GetPatientAppointments(ctx context.Context, patientID uuid.UUID, start, end time.Time) ([]*model.Appointment, error)
}

type Handler struct {
	service Scheduler
}

func NewHandler(service Scheduler) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/availability", h.CheckAvailability)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.POST("/:id/reschedule", h.RescheduleAppointment)
		appointments.DELETE("/:id", h.CancelAppointment)
	}
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Query("therapist_id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid therapist ID", err))
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, c.Query("scheduled_at"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid scheduled_at, expected RFC3339", err))
		return
	}

	var duration int
	if err := bindDuration(c.Query("duration"), &duration); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	params := scheduling.CheckParams{
		TherapistID: therapistID,
		ScheduledAt: scheduledAt,
		Duration:    duration,
	}

	if raw := c.Query("patient_id"); raw != "" {
		patientID, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("invalid patient ID", err))
			return
		}
		params.PatientID = patientID
	}

	if raw := c.Query("exclude_appointment_id"); raw != "" {
		excludeID, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("invalid exclude_appointment_id", err))
			return
		}
		params.ExcludeAppointmentID = &excludeID
	}

	result, err := h.service.CheckAvailability(c.Request.Context(), params)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest(err.Error(), err))
		return
	}

	appointment, err := h.service.CreateAppointment(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, appointment)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid appointment ID", err))
		return
	}

	appointment, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

// ListAppointments requires a therapist or patient filter; an unbounded
// listing across the whole clinic is never served from this endpoint.
func (h *Handler) ListAppointments(c *gin.Context) {
	start := time.Now()
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("invalid start_date, expected RFC3339", err))
			return
		}
		start = parsed
	}

	end := start.Add(defaultListWindow)
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("invalid end_date, expected RFC3339", err))
			return
		}
		end = parsed
	}

	var (
		appointments []*model.Appointment
		err          error
	)

	switch {
	case c.Query("therapist_id") != "":
		therapistID, parseErr := uuid.Parse(c.Query("therapist_id"))
		if parseErr != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("invalid therapist ID", parseErr))
			return
		}
		appointments, err = h.service.GetTherapistAppointments(c.Request.Context(), therapistID, start, end)
	case c.Query("patient_id") != "":
		patientID, parseErr := uuid.Parse(c.Query("patient_id"))
		if parseErr != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("invalid patient ID", parseErr))
			return
		}
		appointments, err = h.service.GetPatientAppointments(c.Request.Context(), patientID, start, end)
	default:
		httputil.RespondWithError(c, errors.NewBadRequest("therapist_id or patient_id is required", nil))
		return
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if status := model.AppointmentStatus(c.Query("status")); status != "" {
		filtered := appointments[:0]
		for _, a := range appointments {
			if a.Status == status {
				filtered = append(filtered, a)
			}
		}
		appointments = filtered
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid appointment ID", err))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest(err.Error(), err))
		return
	}

	appointment, err := h.service.UpdateAppointment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid appointment ID", err))
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest(err.Error(), err))
		return
	}

	appointment, err := h.service.RescheduleAppointment(c.Request.Context(), id, req.NewDate)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid appointment ID", err))
		return
	}

	// The cancel reason body is optional.
	var req model.CancelAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest(err.Error(), err))
			return
		}
	}

	appointment, err := h.service.CancelAppointment(c.Request.Context(), id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}
