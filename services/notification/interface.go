package notification

import (
	"context"
	"time"

	deliveryRepo "chefly/database/repository/delivery"
	deviceRepo "chefly/database/repository/device"
	notificationRepo "chefly/database/repository/notification"
	preferenceRepo "chefly/database/repository/preference"
	userRepo "chefly/database/repository/user"
	"chefly/models"
	"chefly/services/notification/sender"
	"chefly/services/realtime"
	"chefly/services/tasks"

	"github.com/go-redis/redis/v8"
)

// DispatchOptions tune one dispatch call.
type DispatchOptions struct {
	// Channels restricts the attempt to a subset; nil means all channels.
	Channels []models.NotificationChannel
	// SkipPreferences attempts every requested channel regardless of the
	// user's stored preferences (used for account-critical events).
	SkipPreferences bool
	// Priority may raise the per-type default priority, never lower it.
	Priority models.NotificationPriority
	// ScheduledFor in the future enqueues the dispatch instead of sending now.
	ScheduledFor *time.Time
}

// NotificationService is the multi-channel dispatch core plus the operations
// backing the notification HTTP surface.
type NotificationService interface {
	// Dispatch fans a domain event out to every eligible channel. Channel
	// failures are recorded, never raised; only validation errors and a
	// total infrastructure outage return an error.
	Dispatch(ctx context.Context, eventType models.NotificationType, userID string, data map[string]string, opts *DispatchOptions) (*models.DispatchResult, error)

	// In-app notification center.
	ListInApp(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	DeleteInApp(ctx context.Context, userID, id string) error

	// Channel preferences.
	GetPreferences(ctx context.Context, userID string, t models.NotificationType) (*models.ChannelPreferences, error)
	SetPreferences(ctx context.Context, userID string, t models.NotificationType, patch models.PreferencePatch) (*models.ChannelPreferences, error)
	ResetPreferences(ctx context.Context, userID string) error

	// Push targets.
	RegisterDevice(ctx context.Context, rec models.DeviceRecord) error
	UnregisterDevice(ctx context.Context, userID, deviceID string) error
	ListDevices(ctx context.Context, userID string) ([]models.DeviceRecord, error)

	// Delivery bookkeeping, read by the internal dispatch surface.
	ListDeliveries(ctx context.Context, notificationID string) ([]models.DeliveryRecord, error)

	// Worker entry points.
	RetryChannel(ctx context.Context, p models.RetryTaskPayload) error
}

// DefaultNotificationService is the production implementation. It owns no
// persistent state itself; it orchestrates the stores and the channel senders.
type DefaultNotificationService struct {
	Users      userRepo.UserRepository
	Inbox      notificationRepo.NotificationRepository
	Prefs      preferenceRepo.PreferenceRepository
	Devices    deviceRepo.DeviceRepository
	Deliveries deliveryRepo.DeliveryRepository

	Senders map[models.NotificationChannel]sender.ChannelSender
	Hub     *realtime.Hub

	// Queue is optional: nil disables scheduled dispatch and retries
	// (attempts then resolve in a single pass).
	Queue tasks.Enqueuer

	// Cache is optional: nil disables the unread-counter cache.
	Cache *redis.Client

	// SendTimeout bounds each channel attempt; zero means defaultSendTimeout.
	SendTimeout time.Duration
}

const defaultSendTimeout = 10 * time.Second

func (s *DefaultNotificationService) sendTimeout() time.Duration {
	if s.SendTimeout > 0 {
		return s.SendTimeout
	}
	return defaultSendTimeout
}
