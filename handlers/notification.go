package handlers

import (
	"net/http"
	"strconv"

	"chefly/services/notification"

	"github.com/gin-gonic/gin"
)

// NotificationHandler serves the in-app notification center endpoints.
type NotificationHandler struct {
	Service notification.NotificationService
}

func NewNotificationHandler(svc notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

// userIDFromContext retrieves the userID set by JWTAuthUserMiddleware.
func userIDFromContext(c *gin.Context) (string, bool) {
	rawUserID, exists := c.Get("userID")
	if !exists || rawUserID == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User ID not found in context"})
		return "", false
	}
	userID, ok := rawUserID.(string)
	if !ok || userID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID in context"})
		return "", false
	}
	return userID, true
}

// ListHandler returns the user's notifications, newest first.
func (h *NotificationHandler) ListHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	notifications, err := h.Service.ListInApp(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// UnreadCountHandler returns the unread counter.
func (h *NotificationHandler) UnreadCountHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	count, err := h.Service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkReadHandler flips one notification to read. Idempotent.
func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	if err := h.Service.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// DeleteHandler removes one notification. Idempotent.
func (h *NotificationHandler) DeleteHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteInApp(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
