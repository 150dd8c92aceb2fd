package deviceRepo

import (
	"chefly/models"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Register upserts the device record keyed by (userId, deviceId).
func (r *mongoDeviceRepo) Register(ctx context.Context, rec models.DeviceRecord) error {
	if rec.RegisteredAt.IsZero() {
		rec.RegisteredAt = time.Now()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"userId": rec.UserID, "deviceId": rec.DeviceID},
		rec, opts,
	)
	return err
}

// Unregister removes one device. Removing an unknown device is a no-op.
func (r *mongoDeviceRepo) Unregister(ctx context.Context, userID, deviceID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "deviceId": deviceID})
	return err
}

// ListForUser returns every registered push target for the user.
func (r *mongoDeviceRepo) ListForUser(ctx context.Context, userID string) ([]models.DeviceRecord, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	devices := []models.DeviceRecord{}
	if err := cursor.All(ctx, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// RemoveByTarget prunes a device by its FCM token, subscription endpoint or
// deviceId. The deviceId match covers records with no addressable target at
// all (a web row whose subscription was never stored).
func (r *mongoDeviceRepo) RemoveByTarget(ctx context.Context, userID, target string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{
		"userId": userID,
		"$or": bson.A{
			bson.M{"token": target},
			bson.M{"subscription.endpoint": target},
			bson.M{"deviceId": target},
		},
	})
	return err
}
