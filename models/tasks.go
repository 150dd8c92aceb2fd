package models

// DispatchTaskPayload is the queued form of a dispatch call whose
// scheduledFor lies in the future.
type DispatchTaskPayload struct {
	Type            NotificationType      `json:"type"`
	UserID          string                `json:"userId"`
	Data            map[string]string     `json:"data,omitempty"`
	Channels        []NotificationChannel `json:"channels,omitempty"`
	SkipPreferences bool                  `json:"skipPreferences,omitempty"`
	Priority        NotificationPriority  `json:"priority,omitempty"`
}

// RetryTaskPayload re-attempts a single channel after a transient failure.
// The in-app record was written during the original dispatch, so a retry only
// ever touches the one failed channel.
type RetryTaskPayload struct {
	DeliveryID string              `json:"deliveryId"`
	UserID     string              `json:"userId"`
	Channel    NotificationChannel `json:"channel"`
	Payload    NotificationPayload `json:"payload"`
	Attempt    int                 `json:"attempt"`
}
