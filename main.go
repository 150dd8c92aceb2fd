// File: chefly/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chefly/config"
	"chefly/cron"
	"chefly/database"
	deliveryRepoPkg "chefly/database/repository/delivery"
	deviceRepoPkg "chefly/database/repository/device"
	notificationRepoPkg "chefly/database/repository/notification"
	preferenceRepoPkg "chefly/database/repository/preference"
	userRepoPkg "chefly/database/repository/user"
	"chefly/handlers"
	"chefly/middleware"
	"chefly/models"
	"chefly/routes"
	"chefly/services/notification"
	"chefly/services/notification/sender"
	"chefly/services/realtime"
	"chefly/services/tasks"
	"chefly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitAuthCache()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	userRepo := userRepoPkg.NewMongoUserRepo()
	inboxRepo := notificationRepoPkg.NewMongoNotificationRepo()
	prefRepo := preferenceRepoPkg.NewMongoPreferenceRepo()
	deviceRepo := deviceRepoPkg.NewMongoDeviceRepo()
	deliveryRepo := deliveryRepoPkg.NewMongoDeliveryRepo()

	// realtime hub.
	hub := realtime.NewHub()
	go hub.Heartbeat(30 * time.Second)

	// channel senders.
	pushSender := sender.NewPushSender(
		utils.FCMClient,
		config.AppConfig.VAPIDPublicKey,
		config.AppConfig.VAPIDPrivateKey,
		config.AppConfig.VAPIDSubject,
	)
	emailSender := sender.NewEmailSender(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
		config.AppConfig.SMTPFrom,
	)
	smsSender, err := sender.NewSMSSender(
		context.Background(),
		config.AppConfig.AWSRegion,
		config.AppConfig.SMSSenderID,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize SMS sender: %v", err)
	}
	wsSender := sender.NewWebsocketSender(hub)

	// async task queue for scheduled dispatches and retries.
	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer queueClient.Close()
	var queue tasks.Enqueuer = queueClient

	// services.
	notificationService := &notification.DefaultNotificationService{
		Users:      userRepo,
		Inbox:      inboxRepo,
		Prefs:      prefRepo,
		Devices:    deviceRepo,
		Deliveries: deliveryRepo,
		Senders: map[models.NotificationChannel]sender.ChannelSender{
			models.ChannelPush:      pushSender,
			models.ChannelEmail:     emailSender,
			models.ChannelSMS:       smsSender,
			models.ChannelWebsocket: wsSender,
		},
		Hub:         hub,
		Queue:       queue,
		Cache:       utils.GetCacheClient(),
		SendTimeout: time.Duration(config.AppConfig.SendTimeoutSecs) * time.Second,
	}

	notificationHandler := handlers.NewNotificationHandler(notificationService)
	preferenceHandler := handlers.NewPreferenceHandler(notificationService)
	deviceHandler := handlers.NewDeviceHandler(notificationService)
	websocketHandler := handlers.NewWebsocketHandler(hub)
	dispatchHandler := handlers.NewDispatchHandler(notificationService)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		// In-app notification center.
		ListNotificationsHandler:  notificationHandler.ListHandler,
		UnreadCountHandler:        notificationHandler.UnreadCountHandler,
		MarkNotificationRead:      notificationHandler.MarkReadHandler,
		DeleteNotificationHandler: notificationHandler.DeleteHandler,

		// Channel preferences.
		GetPreferencesHandler:   preferenceHandler.GetHandler,
		SetPreferencesHandler:   preferenceHandler.SetHandler,
		ResetPreferencesHandler: preferenceHandler.ResetHandler,

		// Push targets.
		VAPIDPublicKeyHandler:   deviceHandler.VAPIDPublicKeyHandler,
		SubscribeWebPushHandler: deviceHandler.SubscribeHandler,
		UnsubscribeWebPush:      deviceHandler.UnsubscribeHandler,
		RegisterDeviceHandler:   deviceHandler.RegisterHandler,
		UnregisterDeviceHandler: deviceHandler.UnregisterHandler,

		// Realtime.
		WebsocketHandler: websocketHandler.Handle,

		// Internal surface (admin-guarded).
		DispatchHandler:       dispatchHandler.Handle,
		ListDeliveriesHandler: dispatchHandler.DeliveriesHandler,

		// Ops.
		HealthHandler: handlers.HealthHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background worker for scheduled dispatches and channel retries.
	cron.InitNotificationWorker(notificationService)

	// Health monitoring for the status endpoint.
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()},
		database.MongoClient,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
