package handlers

import (
	"net/http"

	"chefly/config"
	"chefly/models"
	"chefly/services/notification"

	"github.com/gin-gonic/gin"
)

// DeviceHandler serves push target registration: web push subscriptions and
// mobile device tokens.
type DeviceHandler struct {
	Service notification.NotificationService
}

func NewDeviceHandler(svc notification.NotificationService) *DeviceHandler {
	return &DeviceHandler{Service: svc}
}

// VAPIDPublicKeyHandler exposes the key browsers need to subscribe.
func (h *DeviceHandler) VAPIDPublicKeyHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": config.AppConfig.VAPIDPublicKey})
}

type subscribeRequest struct {
	DeviceID     string             `json:"deviceId" binding:"required"`
	Subscription models.WebPushKeys `json:"subscription" binding:"required"`
}

// SubscribeHandler stores a browser push subscription.
func (h *DeviceHandler) SubscribeHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	err := h.Service.RegisterDevice(c.Request.Context(), models.DeviceRecord{
		UserID:       userID,
		DeviceID:     req.DeviceID,
		Platform:     models.PlatformWeb,
		Subscription: &req.Subscription,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Subscribed"})
}

type unsubscribeRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
}

// UnsubscribeHandler removes a browser push subscription.
func (h *DeviceHandler) UnsubscribeHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	if err := h.Service.UnregisterDevice(c.Request.Context(), userID, req.DeviceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}

type registerDeviceRequest struct {
	DeviceID string                `json:"deviceId" binding:"required"`
	Platform models.DevicePlatform `json:"platform" binding:"required"`
	Token    string                `json:"token" binding:"required"`
}

// RegisterHandler stores a mobile push token.
func (h *DeviceHandler) RegisterHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	err := h.Service.RegisterDevice(c.Request.Context(), models.DeviceRecord{
		UserID:   userID,
		DeviceID: req.DeviceID,
		Platform: req.Platform,
		Token:    req.Token,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Device registered"})
}

// UnregisterHandler removes a mobile push token by deviceId.
func (h *DeviceHandler) UnregisterHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	deviceID := c.Param("deviceId")
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId is required"})
		return
	}

	if err := h.Service.UnregisterDevice(c.Request.Context(), userID, deviceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered"})
}
