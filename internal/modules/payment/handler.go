package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"pinjamin/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/notification", h.HandleNotification)
}

// HandleNotification is the gateway webhook. 200 covers idempotent
// duplicates; the error bodies stay generic so a probing caller learns
// nothing about which gate failed.
func (h *Handler) HandleNotification(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to read body")
		return
	}
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid notification body")
		return
	}

	_, err = h.service.HandleNotification(c.Request.Context(), n, string(raw))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, ErrInvalidSignature):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Notification rejected")
	case errors.Is(err, ErrUnknownTransaction):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification rejected")
	case errors.Is(err, ErrBackwardTransition), errors.Is(err, ErrUnexpectedRefund):
		response.Error(c, http.StatusConflict, "CONFLICT", "Notification rejected")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected error")
	}
}
