package deliveryRepo

import (
	"chefly/models"
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Create inserts a delivery record, usually in pending state.
func (r *mongoDeliveryRepo) Create(ctx context.Context, rec models.DeliveryRecord) (*models.DeliveryRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = models.DeliveryPending
	}
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt

	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByID returns one delivery record by its ID.
func (r *mongoDeliveryRepo) GetByID(ctx context.Context, id string) (*models.DeliveryRecord, error) {
	var rec models.DeliveryRecord
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateStatus records the resolved outcome of an attempt.
func (r *mongoDeliveryRepo) UpdateStatus(ctx context.Context, id string, status models.DeliveryStatus, errKind models.DeliveryErrorKind, lastError, providerMessageID string, attempt int) error {
	update := bson.M{
		"status":       status,
		"errorKind":    errKind,
		"lastError":    lastError,
		"attemptCount": attempt,
		"updatedAt":    time.Now(),
	}
	if providerMessageID != "" {
		update["providerMessageId"] = providerMessageID
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": update})
	return err
}

// ListByNotification fetches all channel attempts for one notification instance.
func (r *mongoDeliveryRepo) ListByNotification(ctx context.Context, notificationID string) ([]models.DeliveryRecord, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"notificationId": notificationID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.DeliveryRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
