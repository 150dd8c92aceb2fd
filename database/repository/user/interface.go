package userRepo

import (
	"chefly/database"
	"chefly/models"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository is the slim directory the notification core reads: recipient
// validation plus email/phone destinations. Account CRUD belongs to the main
// marketplace service, which writes this collection.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Exists(ctx context.Context, userID string) (bool, error)
}

type mongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo returns a UserRepository backed by MongoDB.
func NewMongoUserRepo() UserRepository {
	return &mongoUserRepo{
		coll: database.DB().Collection("users"),
	}
}
