// FILE: database/repository/device/indexes.go
package deviceRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the push_devices collection.
func (r *mongoDeviceRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// One record per device per user; Register relies on this for upsert.
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "deviceId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_user_device"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("user_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create device indexes: %w", err)
	}
	return nil
}
