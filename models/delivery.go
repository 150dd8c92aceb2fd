package models

import "time"

// DeliveryStatus is the outcome of one channel attempt within one dispatch.
// A channel attempt moves pending -> sent|failed synchronously after the
// sender returns; delivered is reserved for channels with delivery
// confirmation callbacks and may never be reached for email or SMS.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// DeliveryErrorKind classifies a failed attempt. Transient kinds are eligible
// for retry; permanent kinds are not and may trigger cleanup.
type DeliveryErrorKind string

const (
	ErrorKindNone          DeliveryErrorKind = ""
	ErrorKindTimeout       DeliveryErrorKind = "timeout"
	ErrorKindProvider      DeliveryErrorKind = "provider"
	ErrorKindGone          DeliveryErrorKind = "gone"
	ErrorKindNoDestination DeliveryErrorKind = "no_destination"
	ErrorKindInvalid       DeliveryErrorKind = "invalid_destination"
)

// Transient reports whether the kind is worth retrying.
func (k DeliveryErrorKind) Transient() bool {
	return k == ErrorKindTimeout || k == ErrorKindProvider
}

// DeliveryRecord tracks one (dispatch, channel) attempt. NotificationID is
// the in-app record id when one was created, otherwise the dispatch id.
type DeliveryRecord struct {
	ID                string              `bson:"id" json:"id"`
	NotificationID    string              `bson:"notificationId" json:"notificationId"`
	UserID            string              `bson:"userId" json:"userId"`
	Type              NotificationType    `bson:"type" json:"type"`
	Channel           NotificationChannel `bson:"channel" json:"channel"`
	Status            DeliveryStatus      `bson:"status" json:"status"`
	ErrorKind         DeliveryErrorKind   `bson:"errorKind,omitempty" json:"errorKind,omitempty"`
	LastError         string              `bson:"lastError,omitempty" json:"lastError,omitempty"`
	ProviderMessageID string              `bson:"providerMessageId,omitempty" json:"providerMessageId,omitempty"`
	AttemptCount      int                 `bson:"attemptCount" json:"attemptCount"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ChannelResult summarizes one channel's outcome inside a DispatchResult.
type ChannelResult struct {
	Status            DeliveryStatus    `json:"status"`
	ErrorKind         DeliveryErrorKind `json:"errorKind,omitempty"`
	ProviderMessageID string            `json:"providerMessageId,omitempty"`
}

// DispatchResult is returned by the dispatcher. A dispatch with some failed
// channels is still a successful dispatch; only validation and total-outage
// errors surface as errors.
type DispatchResult struct {
	DispatchID     string                                `json:"dispatchId"`
	NotificationID string                                `json:"notificationId,omitempty"`
	Scheduled      bool                                  `json:"scheduled"`
	Channels       map[NotificationChannel]ChannelResult `json:"channels"`
}
