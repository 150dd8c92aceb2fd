package sender

import (
	"context"
	"errors"
	"net"

	"chefly/models"
)

// Destination is the resolved address set for one channel attempt. The
// dispatcher fills in only what the channel needs: devices for push, email
// for email, phone for SMS, the created in-app record for websocket.
type Destination struct {
	UserID       string
	Devices      []models.DeviceRecord
	Email        string
	Phone        string
	Notification *models.Notification
}

// Outcome is the uniform result every channel sender reports.
type Outcome struct {
	OK                bool
	ProviderMessageID string
	ErrorKind         models.DeliveryErrorKind
	Error             string
	// GoneTargets lists push destinations the provider reported permanently
	// dead (unregistered token, 410 subscription). The dispatcher prunes
	// them from the device registry.
	GoneTargets []string
}

// ChannelSender is the seam between the dispatcher and concrete providers.
// The dispatcher fans out against this interface only, so swapping a push,
// email or SMS provider never touches dispatch logic.
type ChannelSender interface {
	Channel() models.NotificationChannel
	Send(ctx context.Context, dest Destination, payload models.NotificationPayload) Outcome
}

func failure(kind models.DeliveryErrorKind, err error) Outcome {
	out := Outcome{OK: false, ErrorKind: kind}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// classify maps a provider error to a retryability class. Timeouts are kept
// distinct from provider rejections because only the latter can carry a
// permanent-failure signal.
func classify(err error) models.DeliveryErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ErrorKindTimeout
	}
	return models.ErrorKindProvider
}
