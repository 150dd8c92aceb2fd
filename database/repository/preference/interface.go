package preferenceRepo

import (
	"chefly/database"
	"chefly/models"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// PreferenceRepository stores per-user, per-event-type channel preferences.
// Default resolution lives here so no caller re-implements the default table:
// Get never fails for a valid user, it falls back to
// models.DefaultChannelPreferences when no row exists.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string, t models.NotificationType) (*models.ChannelPreferences, error)
	// Set merge-patches the stored row (materializing defaults first if the
	// row does not exist yet) and returns the result.
	Set(ctx context.Context, userID string, t models.NotificationType, patch models.PreferencePatch) (*models.ChannelPreferences, error)
	// ResetAll drops every stored row for the user, restoring defaults for
	// all types.
	ResetAll(ctx context.Context, userID string) error
}

type mongoPreferenceRepo struct {
	coll *mongo.Collection
}

// NewMongoPreferenceRepo returns a PreferenceRepository backed by MongoDB.
func NewMongoPreferenceRepo() PreferenceRepository {
	return &mongoPreferenceRepo{
		coll: database.DB().Collection("notification_preferences"),
	}
}
