package notification

import (
	"context"
	"testing"

	"chefly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListInAppNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, chef := range []string{"Amara", "Ben", "Cleo"} {
		_, err := f.svc.Dispatch(ctx, models.TypeBookingConfirmed, "user-1",
			map[string]string{"chefName": chef, "date": "June 14"}, nil)
		require.NoError(t, err)
	}

	list, err := f.svc.ListInApp(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Contains(t, list[0].Body, "Cleo")
	assert.Contains(t, list[1].Body, "Ben")
}

func TestMarkReadIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.svc.Dispatch(ctx, models.TypeBookingConfirmed, "user-1", nil, nil)
	require.NoError(t, err)
	id := result.NotificationID
	require.NotEmpty(t, id)

	require.NoError(t, f.svc.MarkRead(ctx, "user-1", id))
	count, err := f.svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)

	// Second mark and an unknown id are both quiet no-ops.
	assert.NoError(t, f.svc.MarkRead(ctx, "user-1", id))
	assert.NoError(t, f.svc.MarkRead(ctx, "user-1", "no-such-id"))
}

func TestMarkReadScopedToOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.users.users["user-2"] = &models.User{ID: "user-2", Email: "other@example.com"}

	result, err := f.svc.Dispatch(ctx, models.TypeBookingConfirmed, "user-1", nil, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkRead(ctx, "user-2", result.NotificationID))
	count, err := f.svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "another user's mark must not touch the record")
}

func TestDeleteInAppIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.svc.Dispatch(ctx, models.TypeBookingConfirmed, "user-1", nil, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteInApp(ctx, "user-1", result.NotificationID))
	list, err := f.svc.ListInApp(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.NoError(t, f.svc.DeleteInApp(ctx, "user-1", result.NotificationID))
}

func TestRegisterDeviceValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("web requires a subscription", func(t *testing.T) {
		err := f.svc.RegisterDevice(ctx, models.DeviceRecord{
			UserID: "user-1", DeviceID: "tab-1", Platform: models.PlatformWeb,
		})
		assert.Error(t, err)
	})

	t.Run("mobile requires a token", func(t *testing.T) {
		err := f.svc.RegisterDevice(ctx, models.DeviceRecord{
			UserID: "user-1", DeviceID: "phone-1", Platform: models.PlatformIOS,
		})
		assert.Error(t, err)
	})

	t.Run("unknown platform rejected", func(t *testing.T) {
		err := f.svc.RegisterDevice(ctx, models.DeviceRecord{
			UserID: "user-1", DeviceID: "x", Platform: "watch", Token: "t",
		})
		assert.Error(t, err)
	})

	t.Run("valid records are stored", func(t *testing.T) {
		require.NoError(t, f.svc.RegisterDevice(ctx, models.DeviceRecord{
			UserID: "user-1", DeviceID: "phone-1", Platform: models.PlatformAndroid, Token: "tok-1",
		}))
		require.NoError(t, f.svc.RegisterDevice(ctx, models.DeviceRecord{
			UserID: "user-1", DeviceID: "tab-1", Platform: models.PlatformWeb,
			Subscription: &models.WebPushKeys{Endpoint: "https://push.example/abc", P256dh: "p", Auth: "a"},
		}))

		devices, err := f.svc.ListDevices(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, devices, 2)
	})
}

func TestRegisterDeviceReplacesToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.RegisterDevice(ctx, models.DeviceRecord{
		UserID: "user-1", DeviceID: "phone-1", Platform: models.PlatformAndroid, Token: "old",
	}))
	require.NoError(t, f.svc.RegisterDevice(ctx, models.DeviceRecord{
		UserID: "user-1", DeviceID: "phone-1", Platform: models.PlatformAndroid, Token: "new",
	}))

	devices, err := f.svc.ListDevices(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "new", devices[0].Token)
}

func TestPreferenceRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	prefs, err := f.svc.GetPreferences(ctx, "user-1", models.TypeBookingConfirmed)
	require.NoError(t, err)
	assert.True(t, prefs.Push)
	assert.False(t, prefs.SMS)

	updated, err := f.svc.SetPreferences(ctx, "user-1", models.TypeBookingConfirmed,
		models.PreferencePatch{Push: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Push)
	assert.True(t, updated.Email, "merge-patch leaves unspecified fields alone")

	require.NoError(t, f.svc.ResetPreferences(ctx, "user-1"))
	reset, err := f.svc.GetPreferences(ctx, "user-1", models.TypeBookingConfirmed)
	require.NoError(t, err)
	assert.True(t, reset.Push)
}

func TestPreferenceUnknownType(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.GetPreferences(ctx, "user-1", "no_such_event")
	assert.ErrorIs(t, err, ErrInvalidEventType)

	_, err = f.svc.SetPreferences(ctx, "user-1", "no_such_event", models.PreferencePatch{})
	assert.ErrorIs(t, err, ErrInvalidEventType)
}
