package preferenceRepo

import (
	"chefly/models"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Get returns the stored preferences or the hard-coded defaults if unset.
func (r *mongoPreferenceRepo) Get(ctx context.Context, userID string, t models.NotificationType) (*models.ChannelPreferences, error) {
	var prefs models.ChannelPreferences
	err := r.coll.FindOne(ctx, bson.M{"userId": userID, "type": t}).Decode(&prefs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		defaults := models.DefaultChannelPreferences(userID, t)
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Set merge-patches the row, creating it from defaults when absent.
func (r *mongoPreferenceRepo) Set(ctx context.Context, userID string, t models.NotificationType, patch models.PreferencePatch) (*models.ChannelPreferences, error) {
	current, err := r.Get(ctx, userID, t)
	if err != nil {
		return nil, err
	}

	merged := patch.Apply(*current)
	merged.UpdatedAt = time.Now()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"userId": userID, "type": t}, merged, opts); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ResetAll removes every stored row for the user. Subsequent reads fall back
// to defaults for all types.
func (r *mongoPreferenceRepo) ResetAll(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
