package notificationRepo

import (
	"chefly/database"
	"chefly/models"
	"chefly/utils"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NotificationRepository is the durable in-app notification store.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (*models.Notification, error)
	List(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	// MarkRead flips the read flag. Idempotent: already-read or missing ids
	// are a no-op, not an error.
	MarkRead(ctx context.Context, userID, id string) (bool, error)
	// Delete removes one record owned by userID. Idempotent like MarkRead.
	Delete(ctx context.Context, userID, id string) (bool, error)
}

type mongoNotificationRepo struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepo returns a NotificationRepository backed by MongoDB.
func NewMongoNotificationRepo() NotificationRepository {
	r := &mongoNotificationRepo{
		coll: database.DB().Collection("notifications"),
	}
	if err := r.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to ensure notification indexes", zap.Error(err))
	}
	return r
}
