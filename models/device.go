package models

import "time"

// DevicePlatform identifies the kind of push target a device record holds.
type DevicePlatform string

const (
	PlatformWeb     DevicePlatform = "web"
	PlatformIOS     DevicePlatform = "ios"
	PlatformAndroid DevicePlatform = "android"
)

// IsValid reports whether p is a recognized platform.
func (p DevicePlatform) IsValid() bool {
	return p == PlatformWeb || p == PlatformIOS || p == PlatformAndroid
}

// WebPushKeys holds the browser subscription credentials for web push.
type WebPushKeys struct {
	Endpoint string `bson:"endpoint" json:"endpoint"`
	P256dh   string `bson:"p256dh" json:"p256dh"`
	Auth     string `bson:"auth" json:"auth"`
}

// DeviceRecord is one addressable push target. Mobile platforms carry an FCM
// token; web carries a push subscription. Records are keyed by DeviceID per
// user, so re-registering the same device replaces its token.
type DeviceRecord struct {
	UserID       string         `bson:"userId" json:"userId"`
	DeviceID     string         `bson:"deviceId" json:"deviceId"`
	Platform     DevicePlatform `bson:"platform" json:"platform"`
	Token        string         `bson:"token,omitempty" json:"token,omitempty"`
	Subscription *WebPushKeys   `bson:"subscription,omitempty" json:"subscription,omitempty"`
	RegisteredAt time.Time      `bson:"registeredAt" json:"registeredAt"`
}
