package notification

import (
	"context"
	"strconv"

	"chefly/models"
	"chefly/services/realtime"
	"chefly/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ListInApp returns the user's notification center entries, newest first.
func (s *DefaultNotificationService) ListInApp(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	return s.Inbox.List(ctx, userID, limit)
}

// UnreadCount returns the number of unread in-app notifications, served from
// the Redis counter cache when warm.
func (s *DefaultNotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	key := utils.UnreadCachePrefix + userID
	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, key).Result()
		if err == nil {
			if n, convErr := strconv.ParseInt(cached, 10, 64); convErr == nil {
				return n, nil
			}
		} else if err != redis.Nil {
			utils.GetLogger().Warn("unread cache read failed",
				zap.String("userId", userID), zap.Error(err))
		}
	}

	count, err := s.Inbox.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, key, count, utils.UnreadCacheTTL).Err()
	}
	return count, nil
}

// MarkRead flips one record to read. Idempotent: a second call (or an
// unknown id) is a no-op. Open clients are notified so every tab updates
// without a refetch.
func (s *DefaultNotificationService) MarkRead(ctx context.Context, userID, id string) error {
	changed, err := s.Inbox.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if changed {
		s.invalidateUnread(ctx, userID)
		s.broadcastMutation(userID, realtime.EventNotificationRead, id)
	}
	return nil
}

// DeleteInApp removes one record. Idempotent like MarkRead.
func (s *DefaultNotificationService) DeleteInApp(ctx context.Context, userID, id string) error {
	deleted, err := s.Inbox.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if deleted {
		s.invalidateUnread(ctx, userID)
		s.broadcastMutation(userID, realtime.EventNotificationDeleted, id)
	}
	return nil
}

// ListDeliveries returns every channel attempt recorded for one notification
// instance.
func (s *DefaultNotificationService) ListDeliveries(ctx context.Context, notificationID string) ([]models.DeliveryRecord, error) {
	return s.Deliveries.ListByNotification(ctx, notificationID)
}

func (s *DefaultNotificationService) broadcastMutation(userID, event, id string) {
	if s.Hub == nil {
		return
	}
	s.Hub.Broadcast(userID, realtime.Message{
		Type:    event,
		Payload: map[string]string{"id": id},
	})
}

func (s *DefaultNotificationService) invalidateUnread(ctx context.Context, userID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, utils.UnreadCachePrefix+userID).Err(); err != nil {
		utils.GetLogger().Warn("unread cache invalidation failed",
			zap.String("userId", userID), zap.Error(err))
	}
}
