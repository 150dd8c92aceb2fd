package notification

import (
	"context"
	"errors"
	"fmt"

	"chefly/models"
)

// RegisterDevice upserts a push target. Re-registering an existing deviceId
// replaces its token or subscription.
func (s *DefaultNotificationService) RegisterDevice(ctx context.Context, rec models.DeviceRecord) error {
	if rec.UserID == "" || rec.DeviceID == "" {
		return errors.New("register device: userId and deviceId are required")
	}
	ok, err := s.Users.Exists(ctx, rec.UserID)
	if err != nil {
		return fmt.Errorf("register device: recipient lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, rec.UserID)
	}
	if !rec.Platform.IsValid() {
		return fmt.Errorf("register device: unknown platform %q", rec.Platform)
	}
	if rec.Platform == models.PlatformWeb {
		if rec.Subscription == nil || rec.Subscription.Endpoint == "" {
			return errors.New("register device: web platform requires a push subscription")
		}
	} else if rec.Token == "" {
		return errors.New("register device: mobile platform requires a device token")
	}
	return s.Devices.Register(ctx, rec)
}

// UnregisterDevice removes one push target. Unknown devices are a no-op.
func (s *DefaultNotificationService) UnregisterDevice(ctx context.Context, userID, deviceID string) error {
	return s.Devices.Unregister(ctx, userID, deviceID)
}

// ListDevices returns the user's registered push targets.
func (s *DefaultNotificationService) ListDevices(ctx context.Context, userID string) ([]models.DeviceRecord, error) {
	return s.Devices.ListForUser(ctx, userID)
}
