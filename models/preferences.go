package models

import "time"

// ChannelPreferences is a user's per-event-type channel enablement. Rows are
// materialized lazily: a user with no stored row gets DefaultChannelPreferences.
type ChannelPreferences struct {
	UserID    string           `bson:"userId" json:"-"`
	Type      NotificationType `bson:"type" json:"-"`
	Push      bool             `bson:"push" json:"push"`
	Email     bool             `bson:"email" json:"email"`
	SMS       bool             `bson:"sms" json:"sms"`
	InApp     bool             `bson:"inApp" json:"inApp"`
	UpdatedAt time.Time        `bson:"updatedAt" json:"-"`
}

// DefaultChannelPreferences is the hard-coded default applied whenever a user
// has no stored preference for a type.
func DefaultChannelPreferences(userID string, t NotificationType) ChannelPreferences {
	return ChannelPreferences{
		UserID: userID,
		Type:   t,
		Push:   true,
		Email:  true,
		SMS:    false,
		InApp:  true,
	}
}

// Enabled reports whether the given channel is switched on. Websocket has no
// preference toggle; it follows the in-app record.
func (p ChannelPreferences) Enabled(ch NotificationChannel) bool {
	switch ch {
	case ChannelPush:
		return p.Push
	case ChannelEmail:
		return p.Email
	case ChannelSMS:
		return p.SMS
	case ChannelInApp, ChannelWebsocket:
		return p.InApp
	}
	return false
}

// PreferencePatch is a merge-patch over ChannelPreferences: nil fields leave
// the stored value unchanged.
type PreferencePatch struct {
	Push  *bool `json:"push,omitempty"`
	Email *bool `json:"email,omitempty"`
	SMS   *bool `json:"sms,omitempty"`
	InApp *bool `json:"inApp,omitempty"`
}

// Apply merges the patch into prefs and returns the result.
func (patch PreferencePatch) Apply(prefs ChannelPreferences) ChannelPreferences {
	if patch.Push != nil {
		prefs.Push = *patch.Push
	}
	if patch.Email != nil {
		prefs.Email = *patch.Email
	}
	if patch.SMS != nil {
		prefs.SMS = *patch.SMS
	}
	if patch.InApp != nil {
		prefs.InApp = *patch.InApp
	}
	return prefs
}
