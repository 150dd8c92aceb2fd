package models

import "time"

// User is the slim directory entry the notification core needs: enough to
// validate a recipient and address the email and SMS channels. Account
// management lives in the main marketplace service.
type User struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Email       string    `bson:"email" json:"email"`
	PhoneNumber string    `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
