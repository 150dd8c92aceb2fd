// File: chefly/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// In-app notification center.
	ListNotificationsHandler  gin.HandlerFunc
	UnreadCountHandler        gin.HandlerFunc
	MarkNotificationRead      gin.HandlerFunc
	DeleteNotificationHandler gin.HandlerFunc

	// Channel preferences.
	GetPreferencesHandler   gin.HandlerFunc
	SetPreferencesHandler   gin.HandlerFunc
	ResetPreferencesHandler gin.HandlerFunc

	// Push targets.
	VAPIDPublicKeyHandler    gin.HandlerFunc
	SubscribeWebPushHandler  gin.HandlerFunc
	UnsubscribeWebPush       gin.HandlerFunc
	RegisterDeviceHandler    gin.HandlerFunc
	UnregisterDeviceHandler  gin.HandlerFunc

	// Realtime.
	WebsocketHandler gin.HandlerFunc

	// Internal surface (admin-guarded).
	DispatchHandler       gin.HandlerFunc
	ListDeliveriesHandler gin.HandlerFunc

	// Ops.
	HealthHandler gin.HandlerFunc
}
