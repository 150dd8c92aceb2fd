package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"chefly/models"
	"chefly/utils"

	webpush "github.com/SherClockHolmes/webpush-go"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// fcmClient is the slice of *messaging.Client the push sender uses.
type fcmClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// webPushFunc matches webpush.SendNotificationWithContext.
type webPushFunc func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// PushSender fans one payload out to every registered device of the user:
// FCM for ios/android tokens, Web Push (VAPID) for browser subscriptions.
// The channel counts as sent if at least one device succeeded.
type PushSender struct {
	FCM             fcmClient
	WebPush         webPushFunc
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
}

// NewPushSender wires the production FCM client and web push transport.
func NewPushSender(fcm *messaging.Client, vapidPublic, vapidPrivate, subject string) *PushSender {
	return &PushSender{
		FCM:             fcm,
		WebPush:         webpush.SendNotificationWithContext,
		VAPIDPublicKey:  vapidPublic,
		VAPIDPrivateKey: vapidPrivate,
		VAPIDSubject:    subject,
	}
}

func (s *PushSender) Channel() models.NotificationChannel { return models.ChannelPush }

func (s *PushSender) Send(ctx context.Context, dest Destination, payload models.NotificationPayload) Outcome {
	if len(dest.Devices) == 0 {
		return failure(models.ErrorKindNoDestination, fmt.Errorf("user %s has no registered push devices", dest.UserID))
	}

	logger := utils.GetLogger()
	var (
		sent     int
		lastID   string
		lastErr  error
		lastKind models.DeliveryErrorKind
		gone     []string
	)

	for _, dev := range dest.Devices {
		switch dev.Platform {
		case models.PlatformWeb:
			ok, goneTarget, err := s.sendWebPush(ctx, dev, payload)
			if ok {
				sent++
				continue
			}
			if goneTarget != "" {
				gone = append(gone, goneTarget)
				lastKind, lastErr = models.ErrorKindGone, err
				continue
			}
			lastKind, lastErr = classify(err), err
		default:
			id, err := s.sendFCM(ctx, dev, payload)
			if err == nil {
				sent++
				lastID = id
				continue
			}
			if messaging.IsUnregistered(err) {
				gone = append(gone, dev.Token)
				lastKind, lastErr = models.ErrorKindGone, err
				continue
			}
			lastKind, lastErr = classify(err), err
		}
		logger.Warn("push delivery to device failed",
			zap.String("userId", dest.UserID),
			zap.String("deviceId", dev.DeviceID),
			zap.Error(lastErr))
	}

	if sent > 0 {
		return Outcome{OK: true, ProviderMessageID: lastID, GoneTargets: gone}
	}
	out := failure(lastKind, lastErr)
	out.GoneTargets = gone
	if len(gone) == len(dest.Devices) {
		// every target is permanently dead; do not retry
		out.ErrorKind = models.ErrorKindGone
	}
	return out
}

func (s *PushSender) sendFCM(ctx context.Context, dev models.DeviceRecord, payload models.NotificationPayload) (string, error) {
	data := map[string]string{
		"type":     string(payload.Type),
		"category": string(payload.Category),
		"priority": string(payload.Priority),
	}
	for k, v := range payload.Data {
		data[k] = v
	}

	msg := &messaging.Message{
		Token: dev.Token,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: data,
	}
	if payload.Priority.AtLeast(models.PriorityHigh) {
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		}
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		}
	}

	return s.FCM.Send(ctx, msg)
}

// sendWebPush attempts one browser subscription. goneTarget is non-empty when
// the destination is permanently dead; it carries the key the registry prunes
// by (the endpoint, or the deviceId when no subscription was ever stored).
func (s *PushSender) sendWebPush(ctx context.Context, dev models.DeviceRecord, payload models.NotificationPayload) (ok bool, goneTarget string, err error) {
	if dev.Subscription == nil || dev.Subscription.Endpoint == "" {
		return false, dev.DeviceID, fmt.Errorf("web device %s has no subscription", dev.DeviceID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, "", err
	}

	sub := &webpush.Subscription{
		Endpoint: dev.Subscription.Endpoint,
		Keys: webpush.Keys{
			P256dh: dev.Subscription.P256dh,
			Auth:   dev.Subscription.Auth,
		},
	}
	resp, err := s.WebPush(ctx, body, sub, &webpush.Options{
		Subscriber:      s.VAPIDSubject,
		VAPIDPublicKey:  s.VAPIDPublicKey,
		VAPIDPrivateKey: s.VAPIDPrivateKey,
		TTL:             60,
	})
	if err != nil {
		return false, "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return false, dev.Subscription.Endpoint, fmt.Errorf("push service returned %d for %s", resp.StatusCode, dev.Subscription.Endpoint)
	case resp.StatusCode >= 400:
		return false, "", fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return true, "", nil
}
