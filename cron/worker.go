package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chefly/config"
	"chefly/models"
	"chefly/services/notification"
	"chefly/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitNotificationWorker runs the async worker in background. It consumes
// scheduled dispatches and single-channel retries.
func InitNotificationWorker(notifSvc notification.NotificationService) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDispatchSend, handleDispatchTask(notifSvc))
	mux.HandleFunc(tasks.TypeChannelRetry, handleRetryTask(notifSvc))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[NotificationWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[NotificationWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[NotificationWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleDispatchTask(notifSvc notification.NotificationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.DispatchTaskPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[DispatchHandler] invalid payload: %v", err)
			return err
		}

		opts := &notification.DispatchOptions{
			Channels:        p.Channels,
			SkipPreferences: p.SkipPreferences,
			Priority:        p.Priority,
		}
		if _, err := notifSvc.Dispatch(ctx, p.Type, p.UserID, p.Data, opts); err != nil {
			log.Printf("[DispatchHandler] scheduled dispatch failed for user %s: %v", p.UserID, err)
			return err
		}
		return nil
	}
}

func handleRetryTask(notifSvc notification.NotificationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.RetryTaskPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[RetryHandler] invalid payload: %v", err)
			return err
		}
		return notifSvc.RetryChannel(ctx, p)
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[NotificationWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
