package deliveryRepo

import (
	"chefly/database"
	"chefly/models"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// DeliveryRepository records the outcome of every channel attempt. One record
// exists per (notification instance, channel); retries update the same record.
type DeliveryRepository interface {
	Create(ctx context.Context, rec models.DeliveryRecord) (*models.DeliveryRecord, error)
	GetByID(ctx context.Context, id string) (*models.DeliveryRecord, error)
	// UpdateStatus moves a record out of pending after the sender resolved.
	UpdateStatus(ctx context.Context, id string, status models.DeliveryStatus, errKind models.DeliveryErrorKind, lastError, providerMessageID string, attempt int) error
	ListByNotification(ctx context.Context, notificationID string) ([]models.DeliveryRecord, error)
}

type mongoDeliveryRepo struct {
	coll *mongo.Collection
}

// NewMongoDeliveryRepo returns a DeliveryRepository backed by MongoDB.
func NewMongoDeliveryRepo() DeliveryRepository {
	return &mongoDeliveryRepo{
		coll: database.DB().Collection("notification_deliveries"),
	}
}
