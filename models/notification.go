package models

import "time"

// NotificationType is the fixed catalog of domain events that can trigger a
// notification. Every other notification entity references one of these.
type NotificationType string

const (
	TypeBookingRequested NotificationType = "booking_requested"
	TypeBookingConfirmed NotificationType = "booking_confirmed"
	TypeBookingCancelled NotificationType = "booking_cancelled"
	TypeBookingCompleted NotificationType = "booking_completed"
	TypeBookingReminder  NotificationType = "booking_reminder"
	TypeBookingRejected  NotificationType = "booking_rejected"

	TypePaymentPending  NotificationType = "payment_pending"
	TypePaymentSuccess  NotificationType = "payment_success"
	TypePaymentFailed   NotificationType = "payment_failed"
	TypePaymentRefunded NotificationType = "payment_refunded"

	TypeMessageReceived NotificationType = "message_received"
	TypeReviewReceived  NotificationType = "review_received"
	TypeReviewResponse  NotificationType = "review_response"

	TypeChefApplicationApproved NotificationType = "chef_application_approved"
	TypeChefApplicationRejected NotificationType = "chef_application_rejected"

	TypeSystemAnnouncement NotificationType = "system_announcement"
	TypeAccountUpdate      NotificationType = "account_update"
)

// NotificationCategory groups types for preference buckets and client iconography.
type NotificationCategory string

const (
	CategoryBooking NotificationCategory = "booking"
	CategoryPayment NotificationCategory = "payment"
	CategoryMessage NotificationCategory = "message"
	CategoryReview  NotificationCategory = "review"
	CategorySystem  NotificationCategory = "system"
)

// NotificationPriority influences channel gating: SMS is reserved for
// high/urgent notifications.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

var priorityRank = map[NotificationPriority]int{
	PriorityLow:    0,
	PriorityNormal: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// AtLeast reports whether p ranks at or above other.
func (p NotificationPriority) AtLeast(other NotificationPriority) bool {
	return priorityRank[p] >= priorityRank[other]
}

// IsValid reports whether p is a recognized priority value.
func (p NotificationPriority) IsValid() bool {
	_, ok := priorityRank[p]
	return ok
}

// NotificationChannel is one delivery transport. ChannelWebsocket is a
// transport only: it mirrors the in-app record whenever the recipient has a
// live connection and is never a stored preference.
type NotificationChannel string

const (
	ChannelPush      NotificationChannel = "push"
	ChannelEmail     NotificationChannel = "email"
	ChannelSMS       NotificationChannel = "sms"
	ChannelWebsocket NotificationChannel = "websocket"
	ChannelInApp     NotificationChannel = "in_app"
)

// AllChannels lists every channel a dispatch may attempt, in no particular order.
var AllChannels = []NotificationChannel{
	ChannelPush, ChannelEmail, ChannelSMS, ChannelWebsocket, ChannelInApp,
}

// NotificationAction is a client-side action button attached to a payload.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// NotificationPayload is the channel-agnostic rendering of one dispatch.
// It is built per-dispatch and never persisted as such; each channel sender
// derives its own wire format from it.
type NotificationPayload struct {
	Type               NotificationType     `json:"type"`
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Data               map[string]string    `json:"data,omitempty"`
	Category           NotificationCategory `json:"category"`
	Priority           NotificationPriority `json:"priority"`
	RequireInteraction bool                 `json:"requireInteraction"`
	Actions            []NotificationAction `json:"actions,omitempty"`
}

// Notification is the durable in-app record visible in the notification center.
type Notification struct {
	ID        string               `bson:"id" json:"id"`
	UserID    string               `bson:"userId" json:"userId"`
	Type      NotificationType     `bson:"type" json:"type"`
	Title     string               `bson:"title" json:"title"`
	Body      string               `bson:"body" json:"body"`
	Data      map[string]string    `bson:"data,omitempty" json:"data,omitempty"`
	Category  NotificationCategory `bson:"category" json:"category"`
	Priority  NotificationPriority `bson:"priority" json:"priority"`
	Read      bool                 `bson:"read" json:"isRead"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}
