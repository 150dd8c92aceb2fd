package deviceRepo

import (
	"chefly/database"
	"chefly/models"
	"chefly/utils"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DeviceRepository tracks push targets per user: web push subscriptions and
// mobile FCM tokens. It is mutated both by the registration API and by the
// push sender when a provider reports a target permanently gone; per-deviceId
// last-writer-wins is acceptable under that race.
type DeviceRepository interface {
	// Register upserts a device keyed by (userId, deviceId). Re-registering
	// the same device replaces its token or subscription.
	Register(ctx context.Context, rec models.DeviceRecord) error
	Unregister(ctx context.Context, userID, deviceID string) error
	ListForUser(ctx context.Context, userID string) ([]models.DeviceRecord, error)
	// RemoveByTarget prunes a dead push destination: an FCM token for mobile
	// platforms, a subscription endpoint for web, or a deviceId when the
	// record carries no addressable target.
	RemoveByTarget(ctx context.Context, userID, target string) error
}

type mongoDeviceRepo struct {
	coll *mongo.Collection
}

// NewMongoDeviceRepo returns a DeviceRepository backed by MongoDB.
func NewMongoDeviceRepo() DeviceRepository {
	r := &mongoDeviceRepo{
		coll: database.DB().Collection("push_devices"),
	}
	if err := r.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to ensure device indexes", zap.Error(err))
	}
	return r
}
