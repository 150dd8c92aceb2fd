package handlers

import (
	"errors"
	"net/http"
	"time"

	"chefly/models"
	"chefly/services/notification"

	"github.com/gin-gonic/gin"
)

// DispatchHandler triggers a dispatch from other backend services. The route
// sits behind the admin API key, never behind user auth.
type DispatchHandler struct {
	Service notification.NotificationService
}

func NewDispatchHandler(svc notification.NotificationService) *DispatchHandler {
	return &DispatchHandler{Service: svc}
}

type dispatchRequest struct {
	Type            models.NotificationType      `json:"type" binding:"required"`
	UserID          string                       `json:"userId" binding:"required"`
	Data            map[string]string            `json:"data"`
	Channels        []models.NotificationChannel `json:"channels"`
	SkipPreferences bool                         `json:"skipPreferences"`
	Priority        models.NotificationPriority  `json:"priority"`
	ScheduledFor    *time.Time                   `json:"scheduledFor"`
}

func (h *DispatchHandler) Handle(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	result, err := h.Service.Dispatch(c.Request.Context(), req.Type, req.UserID, req.Data, &notification.DispatchOptions{
		Channels:        req.Channels,
		SkipPreferences: req.SkipPreferences,
		Priority:        req.Priority,
		ScheduledFor:    req.ScheduledFor,
	})
	switch {
	case errors.Is(err, notification.ErrInvalidEventType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, notification.ErrUnknownRecipient):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if result.Scheduled {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}

// DeliveriesHandler returns the channel attempt log for one notification,
// for support tooling and the marketplace backend.
func (h *DispatchHandler) DeliveriesHandler(c *gin.Context) {
	notificationID := c.Param("notificationId")
	if notificationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "notificationId is required"})
		return
	}

	deliveries, err := h.Service.ListDeliveries(c.Request.Context(), notificationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": deliveries})
}
