package sender

import (
	"context"

	"chefly/models"
	"chefly/services/realtime"
)

// WebsocketSender mirrors the in-app record to every live connection of the
// user. Best-effort by contract: zero connections is a successful no-op and
// a missed live push is compensated by the in-app listing.
type WebsocketSender struct {
	Hub *realtime.Hub
}

func NewWebsocketSender(hub *realtime.Hub) *WebsocketSender {
	return &WebsocketSender{Hub: hub}
}

func (s *WebsocketSender) Channel() models.NotificationChannel { return models.ChannelWebsocket }

func (s *WebsocketSender) Send(ctx context.Context, dest Destination, payload models.NotificationPayload) Outcome {
	var body any = payload
	if dest.Notification != nil {
		body = dest.Notification
	}
	s.Hub.Broadcast(dest.UserID, realtime.Message{
		Type:    realtime.EventNotificationNew,
		Payload: body,
	})
	return Outcome{OK: true}
}
