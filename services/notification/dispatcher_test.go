package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	userRepo "chefly/database/repository/user"
	"chefly/models"
	"chefly/services/notification/sender"
	"chefly/services/realtime"
	"chefly/services/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- in-memory fakes ----

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, userRepo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

type fakeInbox struct {
	mu      sync.Mutex
	records []models.Notification
}

func (f *fakeInbox) Create(_ context.Context, n models.Notification) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now().UTC()
	f.records = append(f.records, n)
	return &n, nil
}

func (f *fakeInbox) List(_ context.Context, userID string, limit int64) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for i := len(f.records) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeInbox) UnreadCount(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.records {
		if r.UserID == userID && !r.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeInbox) MarkRead(_ context.Context, userID, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.ID == id && r.UserID == userID && !r.Read {
			f.records[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInbox) Delete(_ context.Context, userID, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.ID == id && r.UserID == userID {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type prefKey struct {
	userID string
	t      models.NotificationType
}

type fakePrefs struct {
	mu     sync.Mutex
	stored map[prefKey]models.ChannelPreferences
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{stored: make(map[prefKey]models.ChannelPreferences)}
}

func (f *fakePrefs) Get(_ context.Context, userID string, t models.NotificationType) (*models.ChannelPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.stored[prefKey{userID, t}]; ok {
		return &p, nil
	}
	p := models.DefaultChannelPreferences(userID, t)
	return &p, nil
}

func (f *fakePrefs) Set(ctx context.Context, userID string, t models.NotificationType, patch models.PreferencePatch) (*models.ChannelPreferences, error) {
	current, _ := f.Get(ctx, userID, t)
	merged := patch.Apply(*current)
	f.mu.Lock()
	f.stored[prefKey{userID, t}] = merged
	f.mu.Unlock()
	return &merged, nil
}

func (f *fakePrefs) ResetAll(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.stored {
		if k.userID == userID {
			delete(f.stored, k)
		}
	}
	return nil
}

type fakeDevices struct {
	mu      sync.Mutex
	devices []models.DeviceRecord
	pruned  []string
}

func (f *fakeDevices) Register(_ context.Context, rec models.DeviceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.devices {
		if d.UserID == rec.UserID && d.DeviceID == rec.DeviceID {
			f.devices[i] = rec
			return nil
		}
	}
	f.devices = append(f.devices, rec)
	return nil
}

func (f *fakeDevices) Unregister(_ context.Context, userID, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.devices {
		if d.UserID == userID && d.DeviceID == deviceID {
			f.devices = append(f.devices[:i], f.devices[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeDevices) ListForUser(_ context.Context, userID string) ([]models.DeviceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeviceRecord
	for _, d := range f.devices {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDevices) RemoveByTarget(_ context.Context, userID, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, target)
	for i, d := range f.devices {
		if d.UserID != userID {
			continue
		}
		if d.Token == target || d.DeviceID == target || (d.Subscription != nil && d.Subscription.Endpoint == target) {
			f.devices = append(f.devices[:i], f.devices[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeDeliveries struct {
	mu        sync.Mutex
	records   map[string]*models.DeliveryRecord
	createErr error
}

func newFakeDeliveries() *fakeDeliveries {
	return &fakeDeliveries{records: make(map[string]*models.DeliveryRecord)}
}

func (f *fakeDeliveries) Create(_ context.Context, rec models.DeliveryRecord) (*models.DeliveryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	rec.ID = uuid.New().String()
	if rec.Status == "" {
		rec.Status = models.DeliveryPending
	}
	rec.CreatedAt = time.Now().UTC()
	f.records[rec.ID] = &rec
	return &rec, nil
}

func (f *fakeDeliveries) GetByID(_ context.Context, id string) (*models.DeliveryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeDeliveries) UpdateStatus(_ context.Context, id string, status models.DeliveryStatus, errKind models.DeliveryErrorKind, lastError, providerMessageID string, attempt int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return errors.New("not found")
	}
	rec.Status = status
	rec.ErrorKind = errKind
	rec.LastError = lastError
	rec.ProviderMessageID = providerMessageID
	rec.AttemptCount = attempt
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeDeliveries) ListByNotification(_ context.Context, notificationID string) ([]models.DeliveryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeliveryRecord
	for _, rec := range f.records {
		if rec.NotificationID == notificationID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeDeliveries) byChannel(ch models.NotificationChannel) []models.DeliveryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeliveryRecord
	for _, rec := range f.records {
		if rec.Channel == ch {
			out = append(out, *rec)
		}
	}
	return out
}

// mockSender records calls and replies with a scripted outcome.
type mockSender struct {
	mu      sync.Mutex
	channel models.NotificationChannel
	outcome sender.Outcome
	calls   []sender.Destination
}

func (m *mockSender) Channel() models.NotificationChannel { return m.channel }

func (m *mockSender) Send(_ context.Context, dest sender.Destination, _ models.NotificationPayload) sender.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, dest)
	return m.outcome
}

func (m *mockSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (f *fakeQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: uuid.New().String()}, nil
}

func (f *fakeQueue) byType(typename string) []*asynq.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*asynq.Task
	for _, task := range f.tasks {
		if task.Type() == typename {
			out = append(out, task)
		}
	}
	return out
}

// ---- harness ----

type fixture struct {
	svc        *DefaultNotificationService
	users      *fakeUserRepo
	inbox      *fakeInbox
	prefs      *fakePrefs
	devices    *fakeDevices
	deliveries *fakeDeliveries
	queue      *fakeQueue
	push       *mockSender
	email      *mockSender
	sms        *mockSender
}

func newFixture() *fixture {
	f := &fixture{
		users: &fakeUserRepo{users: map[string]*models.User{
			"user-1": {ID: "user-1", Name: "Dana", Email: "dana@example.com", PhoneNumber: "+15550001111"},
		}},
		inbox:      &fakeInbox{},
		prefs:      newFakePrefs(),
		devices:    &fakeDevices{},
		deliveries: newFakeDeliveries(),
		queue:      &fakeQueue{},
		push:       &mockSender{channel: models.ChannelPush, outcome: sender.Outcome{OK: true}},
		email:      &mockSender{channel: models.ChannelEmail, outcome: sender.Outcome{OK: true}},
		sms:        &mockSender{channel: models.ChannelSMS, outcome: sender.Outcome{OK: true}},
	}
	f.svc = &DefaultNotificationService{
		Users:      f.users,
		Inbox:      f.inbox,
		Prefs:      f.prefs,
		Devices:    f.devices,
		Deliveries: f.deliveries,
		Senders: map[models.NotificationChannel]sender.ChannelSender{
			models.ChannelPush:  f.push,
			models.ChannelEmail: f.email,
			models.ChannelSMS:   f.sms,
		},
		Hub:   realtime.NewHub(),
		Queue: f.queue,
	}
	return f
}

func boolPtr(b bool) *bool { return &b }

// ---- dispatch tests ----

func TestDispatchRejectsUnknownEventType(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Dispatch(context.Background(), "no_such_event", "user-1", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

func TestDispatchRejectsUnknownRecipient(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Dispatch(context.Background(), models.TypeBookingConfirmed, "ghost", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownRecipient)
}

func TestDispatchBookingConfirmedDefaults(t *testing.T) {
	f := newFixture()

	result, err := f.svc.Dispatch(context.Background(), models.TypeBookingConfirmed, "user-1",
		map[string]string{"chefName": "Amara", "date": "June 14"}, nil)
	require.NoError(t, err)

	// Normal priority: push, email and the in-app record, never SMS.
	assert.Equal(t, 1, f.push.callCount())
	assert.Equal(t, 1, f.email.callCount())
	assert.Zero(t, f.sms.callCount())

	assert.Equal(t, models.DeliverySent, result.Channels[models.ChannelPush].Status)
	assert.Equal(t, models.DeliverySent, result.Channels[models.ChannelEmail].Status)
	assert.Equal(t, models.DeliverySent, result.Channels[models.ChannelInApp].Status)
	assert.NotContains(t, result.Channels, models.ChannelSMS)

	require.NotEmpty(t, result.NotificationID)
	unread, err := f.svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestDispatchUrgentIncludesSMSWhenEnabled(t *testing.T) {
	f := newFixture()
	_, err := f.prefs.Set(context.Background(), "user-1", models.TypePaymentFailed,
		models.PreferencePatch{SMS: boolPtr(true)})
	require.NoError(t, err)

	result, err := f.svc.Dispatch(context.Background(), models.TypePaymentFailed, "user-1",
		map[string]string{"amount": "$120"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.push.callCount())
	assert.Equal(t, 1, f.email.callCount())
	assert.Equal(t, 1, f.sms.callCount())
	assert.Equal(t, models.DeliverySent, result.Channels[models.ChannelSMS].Status)
	assert.Equal(t, "+15550001111", f.sms.calls[0].Phone)
}

func TestDispatchDisabledChannelNeverAttempted(t *testing.T) {
	f := newFixture()
	_, err := f.prefs.Set(context.Background(), "user-1", models.TypeBookingConfirmed,
		models.PreferencePatch{Push: boolPtr(false)})
	require.NoError(t, err)

	result, err := f.svc.Dispatch(context.Background(), models.TypeBookingConfirmed, "user-1", nil, nil)
	require.NoError(t, err)

	assert.Zero(t, f.push.callCount())
	assert.NotContains(t, result.Channels, models.ChannelPush)
	assert.Equal(t, 1, f.email.callCount())
}

func TestDispatchSkipPreferencesOverridesToggles(t *testing.T) {
	f := newFixture()
	_, err := f.prefs.Set(context.Background(), "user-1", models.TypeAccountUpdate,
		models.PreferencePatch{Push: boolPtr(false), Email: boolPtr(false)})
	require.NoError(t, err)

	_, err = f.svc.Dispatch(context.Background(), models.TypeAccountUpdate, "user-1",
		map[string]string{"message": "Your password changed."},
		&DispatchOptions{SkipPreferences: true})
	require.NoError(t, err)

	assert.Equal(t, 1, f.push.callCount())
	assert.Equal(t, 1, f.email.callCount())
	// The priority gate is not a preference: normal stays off SMS.
	assert.Zero(t, f.sms.callCount())
}

func TestDispatchSMSGateHoldsEvenWhenRequested(t *testing.T) {
	f := newFixture()
	_, err := f.prefs.Set(context.Background(), "user-1", models.TypeBookingConfirmed,
		models.PreferencePatch{SMS: boolPtr(true)})
	require.NoError(t, err)

	result, err := f.svc.Dispatch(context.Background(), models.TypeBookingConfirmed, "user-1", nil,
		&DispatchOptions{Channels: []models.NotificationChannel{models.ChannelSMS}})
	require.NoError(t, err)

	assert.Zero(t, f.sms.callCount())
	assert.NotContains(t, result.Channels, models.ChannelSMS)
}

func TestDispatchPartialFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.push.outcome = sender.Outcome{OK: false, ErrorKind: models.ErrorKindProvider, Error: "fcm 500"}

	result, err := f.svc.Dispatch(context.Background(), models.TypeBookingConfirmed, "user-1", nil, nil)
	require.NoError(t, err, "one channel failing never fails the dispatch")

	assert.Equal(t, models.DeliveryFailed, result.Channels[models.ChannelPush].Status)
	assert.Equal(t, models.ErrorKindProvider, result.Channels[models.ChannelPush].ErrorKind)
	assert.Equal(t, models.DeliverySent, result.Channels[models.ChannelEmail].Status)
	assert.Equal(t, models.DeliverySent, result.Channels[models.ChannelInApp].Status)
	assert.NotEmpty(t, result.NotificationID, "in-app record exists despite the push failure")

	// Transient failure schedules one retry.
	retries := f.queue.byType(tasks.TypeChannelRetry)
	require.Len(t, retries, 1)

	pushRows := f.deliveries.byChannel(models.ChannelPush)
	require.Len(t, pushRows, 1)
	assert.Equal(t, models.DeliveryFailed, pushRows[0].Status)
	assert.Equal(t, "fcm 500", pushRows[0].LastError)
}

func TestDispatchPermanentFailureNotRetried(t *testing.T) {
	f := newFixture()
	f.push.outcome = sender.Outcome{OK: false, ErrorKind: models.ErrorKindNoDestination, Error: "no devices"}

	_, err := f.svc.Dispatch(context.Background(), models.TypeBookingConfirmed, "user-1", nil, nil)
	require.NoError(t, err)

	assert.Empty(t, f.queue.byType(tasks.TypeChannelRetry))
}

func TestDispatchNoRetryWithoutDeliveryRow(t *testing.T) {
	f := newFixture()
	f.deliveries.createErr = errors.New("deliveries collection unavailable")
	f.push.outcome = sender.Outcome{OK: false, ErrorKind: models.ErrorKindProvider, Error: "fcm 500"}

	// Bookkeeping failures never block dispatch, but a retry needs the
	// pending row to reuse; without one the attempt ends here.
	_, err := f.svc.Dispatch(context.Background(), models.TypeBookingConfirmed, "user-1", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.push.callCount())
	assert.Empty(t, f.queue.byType(tasks.TypeChannelRetry))
}

func TestDispatchPrunesGoneTargets(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.devices.Register(context.Background(), models.DeviceRecord{
		UserID: "user-1", DeviceID: "phone-1", Platform: models.PlatformAndroid, Token: "dead-token",
	}))
	f.push.outcome = sender.Outcome{OK: false, ErrorKind: models.ErrorKindGone, GoneTargets: []string{"dead-token"}}

	_, err := f.svc.Dispatch(context.Background(), models.TypeBookingConfirmed, "user-1", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"dead-token"}, f.devices.pruned)
	remaining, err := f.devices.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, remaining)
	// gone is permanent, no retry
	assert.Empty(t, f.queue.byType(tasks.TypeChannelRetry))
}

func TestDispatchScheduledForFutureEnqueues(t *testing.T) {
	f := newFixture()
	at := time.Now().Add(2 * time.Hour)

	result, err := f.svc.Dispatch(context.Background(), models.TypeBookingReminder, "user-1",
		map[string]string{"chefName": "Amara", "date": "June 14"},
		&DispatchOptions{ScheduledFor: &at})
	require.NoError(t, err)

	assert.True(t, result.Scheduled)
	assert.Empty(t, result.Channels)
	assert.Zero(t, f.push.callCount())
	assert.Zero(t, f.email.callCount())
	assert.Len(t, f.queue.byType(tasks.TypeDispatchSend), 1)
}

func TestDispatchPastScheduleSendsImmediately(t *testing.T) {
	f := newFixture()
	at := time.Now().Add(-time.Minute)

	result, err := f.svc.Dispatch(context.Background(), models.TypeBookingConfirmed, "user-1", nil,
		&DispatchOptions{ScheduledFor: &at})
	require.NoError(t, err)

	assert.False(t, result.Scheduled)
	assert.Equal(t, 1, f.push.callCount())
}

func TestDispatchInAppDisabledSkipsRecordAndWebsocket(t *testing.T) {
	f := newFixture()
	_, err := f.prefs.Set(context.Background(), "user-1", models.TypeReviewReceived,
		models.PreferencePatch{InApp: boolPtr(false)})
	require.NoError(t, err)

	result, err := f.svc.Dispatch(context.Background(), models.TypeReviewReceived, "user-1",
		map[string]string{"customerName": "Ben"}, nil)
	require.NoError(t, err)

	assert.Empty(t, result.NotificationID)
	assert.NotContains(t, result.Channels, models.ChannelInApp)
	assert.NotContains(t, result.Channels, models.ChannelWebsocket)
	count, err := f.inbox.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

// ---- retry tests ----

func TestRetryChannelReusesDeliveryRow(t *testing.T) {
	f := newFixture()
	rec, err := f.deliveries.Create(context.Background(), models.DeliveryRecord{
		NotificationID: "n-1", UserID: "user-1", Type: models.TypeBookingConfirmed,
		Channel: models.ChannelEmail, Status: models.DeliveryFailed,
		ErrorKind: models.ErrorKindTimeout, AttemptCount: 1,
	})
	require.NoError(t, err)

	payload, err := BuildPayload(models.TypeBookingConfirmed, nil, "")
	require.NoError(t, err)

	err = f.svc.RetryChannel(context.Background(), models.RetryTaskPayload{
		DeliveryID: rec.ID,
		UserID:     "user-1",
		Channel:    models.ChannelEmail,
		Payload:    payload,
		Attempt:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.email.callCount())
	assert.Equal(t, "dana@example.com", f.email.calls[0].Email)

	updated, err := f.deliveries.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliverySent, updated.Status)
	assert.Equal(t, 2, updated.AttemptCount)
	// No new row was created for the retry.
	assert.Len(t, f.deliveries.byChannel(models.ChannelEmail), 1)
}

func TestRetryChannelGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture()
	f.email.outcome = sender.Outcome{OK: false, ErrorKind: models.ErrorKindTimeout, Error: "smtp timeout"}

	rec, err := f.deliveries.Create(context.Background(), models.DeliveryRecord{
		NotificationID: "n-1", UserID: "user-1", Channel: models.ChannelEmail,
		Status: models.DeliveryFailed, ErrorKind: models.ErrorKindTimeout, AttemptCount: 2,
	})
	require.NoError(t, err)

	payload, err := BuildPayload(models.TypeBookingConfirmed, nil, "")
	require.NoError(t, err)

	err = f.svc.RetryChannel(context.Background(), models.RetryTaskPayload{
		DeliveryID: rec.ID, UserID: "user-1", Channel: models.ChannelEmail,
		Payload: payload, Attempt: maxDeliveryAttempts,
	})
	require.NoError(t, err)

	// Final attempt failed transiently, but the budget is spent.
	assert.Empty(t, f.queue.byType(tasks.TypeChannelRetry))
	updated, err := f.deliveries.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryFailed, updated.Status)
	assert.Equal(t, maxDeliveryAttempts, updated.AttemptCount)
}

func TestRetryChannelDropsWhenRecipientGone(t *testing.T) {
	f := newFixture()
	payload, err := BuildPayload(models.TypeBookingConfirmed, nil, "")
	require.NoError(t, err)

	err = f.svc.RetryChannel(context.Background(), models.RetryTaskPayload{
		DeliveryID: "d-1", UserID: "ghost", Channel: models.ChannelEmail,
		Payload: payload, Attempt: 2,
	})
	assert.NoError(t, err, "a deleted recipient ends the retry chain quietly")
	assert.Zero(t, f.email.callCount())
}

func TestRetryBackoffGrows(t *testing.T) {
	assert.Equal(t, 4*time.Minute, retryBackoff(2))
	assert.Equal(t, 8*time.Minute, retryBackoff(3))
	assert.Greater(t, retryBackoff(3), retryBackoff(2))
}
