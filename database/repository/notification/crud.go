package notificationRepo

import (
	"chefly/models"
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new in-app notification and returns the stored record.
func (r *mongoNotificationRepo) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.Read = false

	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns a user's notifications ordered newest-first.
func (r *mongoNotificationRepo) List(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount counts a user's unread notifications.
func (r *mongoNotificationRepo) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"userId": userID, "read": false})
}

// MarkRead flips the read flag and reports whether a document changed.
func (r *mongoNotificationRepo) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// Delete removes one record and reports whether a document was deleted.
func (r *mongoNotificationRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id, "userId": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
