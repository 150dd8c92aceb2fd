package userRepo

import (
	"chefly/models"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when the user does not exist.
var ErrNotFound = errors.New("user not found")

// GetByID returns the user or ErrNotFound.
func (r *mongoUserRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := r.coll.FindOne(ctx, bson.M{"id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether the user exists without decoding the document.
func (r *mongoUserRepo) Exists(ctx context.Context, userID string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"id": userID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
