package workinghours

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/internal/repository"
	"github.com/fisioflow/agenda-api/pkg/errors"
	"github.com/fisioflow/agenda-api/pkg/httputil"
)

type Handler struct {
	repo repository.WorkingHoursRepository
}

func NewHandler(repo repository.WorkingHoursRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	therapists := r.Group("/therapists")
	{
		therapists.GET("/:id/working-hours", h.ListWorkingHours)
		therapists.PUT("/:id/working-hours/:day", h.UpsertWorkingHours)
	}
}

func (h *Handler) ListWorkingHours(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid therapist ID", err))
		return
	}

	hours, err := h.repo.ListForTherapist(c.Request.Context(), therapistID)
	if err != nil {
		httputil.RespondWithError(c, errors.NewInternal(err))
		return
	}

	httputil.RespondWithSuccess(c, hours)
}

func (h *Handler) UpsertWorkingHours(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid therapist ID", err))
		return
	}

	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 0 || day > 6 {
		httputil.RespondWithError(c, errors.NewBadRequest("day must be 0 (Sunday) through 6 (Saturday)", err))
		return
	}

	var req model.UpsertWorkingHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest(err.Error(), err))
		return
	}

	wh := &model.WorkingHours{
		TherapistID: therapistID,
		DayOfWeek:   day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	startMin, err := wh.StartMinutes()
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid start_time", err))
		return
	}
	endMin, err := wh.EndMinutes()
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid end_time", err))
		return
	}
	if startMin >= endMin {
		httputil.RespondWithError(c, errors.NewBadRequest("start_time must be before end_time", nil))
		return
	}

	if err := h.repo.Upsert(c.Request.Context(), wh); err != nil {
		httputil.RespondWithError(c, errors.NewInternal(err))
		return
	}

	httputil.RespondWithSuccess(c, wh)
}
