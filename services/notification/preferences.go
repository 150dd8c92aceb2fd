package notification

import (
	"context"
	"fmt"

	"chefly/models"
)

// GetPreferences returns a fully-populated preference object for the
// (user, type) pair. Defaults are resolved inside the store, so callers never
// see a partial object.
func (s *DefaultNotificationService) GetPreferences(ctx context.Context, userID string, t models.NotificationType) (*models.ChannelPreferences, error) {
	if _, ok := catalog[t]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, t)
	}
	return s.Prefs.Get(ctx, userID, t)
}

// SetPreferences merge-patches the stored preferences: unspecified fields
// keep their current (or default) value.
func (s *DefaultNotificationService) SetPreferences(ctx context.Context, userID string, t models.NotificationType, patch models.PreferencePatch) (*models.ChannelPreferences, error) {
	if _, ok := catalog[t]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, t)
	}
	return s.Prefs.Set(ctx, userID, t, patch)
}

// ResetPreferences restores the defaults for every notification type.
func (s *DefaultNotificationService) ResetPreferences(ctx context.Context, userID string) error {
	return s.Prefs.ResetAll(ctx, userID)
}
