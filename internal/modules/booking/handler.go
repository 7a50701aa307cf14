package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pinjamin/internal/pkg/response"
	"pinjamin/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.Create)
	rg.GET("/bookings/availability", h.GetAvailability)
	rg.GET("/bookings/:id", h.GetByID)
}

// RegisterAdminRoutes mounts the decision endpoints; the group is expected
// to carry the admin-role middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:id/approve", h.Approve)
	rg.POST("/bookings/:id/reject", h.Reject)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(&req); fields != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid booking request", fields)
		return
	}
	b, err := h.service.Create(c.Request.Context(), c.GetInt64("actor_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}
	admin := c.GetString("role") == "admin"
	b, err := h.service.GetByID(c.Request.Context(), id, c.GetInt64("actor_id"), admin)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) GetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	res, err := h.service.GetAvailability(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Approve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}
	b, err := h.service.Approve(c.Request.Context(), id, c.GetInt64("actor_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Reject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(&req); fields != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Rejection reason is required", fields)
		return
	}
	b, err := h.service.Reject(c.Request.Context(), id, c.GetInt64("actor_id"), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":      "BOOKING_CONFLICT",
				"message":   "Room is not available for the selected time",
				"conflicts": conflictSummaries(conflict),
			},
		})
	case errors.Is(err, ErrValidation), errors.Is(err, ErrMissingReason):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking or room not found")
	case errors.Is(err, ErrSlotNoLongerAvailable):
		response.Error(c, http.StatusConflict, "SLOT_NO_LONGER_AVAILABLE", "Slot is no longer available; booking was rejected")
	case errors.Is(err, ErrAlreadyDecided), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotElapsed):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not allowed")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected error")
	}
}

func conflictSummaries(e *ConflictError) []gin.H {
	out := make([]gin.H, 0, len(e.Conflicts))
	for _, b := range e.Conflicts {
		out = append(out, gin.H{
			"booking_id": b.ID,
			"start_date": b.StartDate.Format(time.DateOnly),
			"end_date":   b.EndDate.Format(time.DateOnly),
			"start_time": b.StartTime,
			"end_time":   b.EndTime,
		})
	}
	return out
}
