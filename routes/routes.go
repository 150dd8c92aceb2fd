package routes

import (
	"time"

	"chefly/handlers"
	"chefly/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterNotificationRoutes registers the user-facing notification endpoints.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		api.Use(middleware.JWTAuthUserMiddleware())

		// In-app notification center.
		api.GET("/in-app", hb.ListNotificationsHandler)
		api.GET("/in-app/unread-count", hb.UnreadCountHandler)
		api.PATCH("/in-app/:id/read", hb.MarkNotificationRead)
		api.DELETE("/in-app/:id", hb.DeleteNotificationHandler)

		// Channel preferences.
		api.GET("/preferences", hb.GetPreferencesHandler)
		api.PUT("/preferences", hb.SetPreferencesHandler)
		api.POST("/preferences/reset", hb.ResetPreferencesHandler)

		// Web push subscriptions.
		api.GET("/vapid-public-key", hb.VAPIDPublicKeyHandler)
		api.POST("/subscribe", hb.SubscribeWebPushHandler)
		api.POST("/unsubscribe", hb.UnsubscribeWebPush)

		// Mobile device tokens.
		api.POST("/devices/register", hb.RegisterDeviceHandler)
		api.DELETE("/devices/:deviceId", hb.UnregisterDeviceHandler)
	}
}

// RegisterDispatchRoutes registers the internal dispatch trigger for other
// backend services, guarded by the admin API key.
func RegisterDispatchRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	internal := r.Group("/api/notifications/dispatch")
	{
		internal.Use(middleware.AdminAPIKeyMiddleware())
		internal.POST("", hb.DispatchHandler)
		internal.GET("/:notificationId/deliveries", hb.ListDeliveriesHandler)
	}
}

// RegisterRealtimeRoute registers the websocket endpoint. Auth happens inside
// the handler so browser clients can pass the token as a query parameter.
func RegisterRealtimeRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/ws", hb.WebsocketHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterNotificationRoutes(r, hb)
	RegisterDispatchRoutes(r, hb)
	RegisterRealtimeRoute(r, hb)
	RegisterHealthRoute(r, hb)
}
