package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	userRepo "chefly/database/repository/user"
	"chefly/models"
	"chefly/services/notification/sender"
	"chefly/services/tasks"
	"chefly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxDeliveryAttempts bounds transient-failure retries per channel,
// counting the original attempt.
const maxDeliveryAttempts = 3

// Dispatch implements the fan-out contract: validate, render, resolve the
// eligible channel set, write the in-app record before any real-time push
// referencing it, then attempt every remaining channel concurrently. One
// channel's failure never blocks a sibling channel or the dispatch itself.
func (s *DefaultNotificationService) Dispatch(
	ctx context.Context,
	eventType models.NotificationType,
	userID string,
	data map[string]string,
	opts *DispatchOptions,
) (*models.DispatchResult, error) {
	if opts == nil {
		opts = &DispatchOptions{}
	}
	logger := utils.GetLogger()

	if _, ok := catalog[eventType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, eventType)
	}

	user, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, userRepo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecipient, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch: recipient lookup: %w", err)
	}

	if opts.ScheduledFor != nil && time.Until(*opts.ScheduledFor) > 0 {
		return s.enqueueScheduled(eventType, userID, data, opts)
	}

	payload, err := BuildPayload(eventType, data, opts.Priority)
	if err != nil {
		return nil, err
	}

	eligible, err := s.resolveChannels(ctx, userID, payload, opts)
	if err != nil {
		return nil, err
	}

	result := &models.DispatchResult{
		DispatchID: uuid.New().String(),
		Channels:   make(map[models.NotificationChannel]models.ChannelResult),
	}
	notificationID := result.DispatchID

	// In-app first: the record must be durably committed before the
	// websocket broadcast referencing it goes out.
	var record *models.Notification
	if eligible[models.ChannelInApp] {
		record = s.createInApp(ctx, userID, payload, result)
		if record != nil {
			notificationID = record.ID
			s.broadcastNew(ctx, userID, payload, record, result)
		}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		pending []models.NotificationChannel
	)
	for _, ch := range []models.NotificationChannel{models.ChannelPush, models.ChannelEmail, models.ChannelSMS} {
		if eligible[ch] {
			pending = append(pending, ch)
		}
	}

	for _, ch := range pending {
		snd, ok := s.Senders[ch]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(ch models.NotificationChannel, snd sender.ChannelSender) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("channel sender panicked",
						zap.String("channel", string(ch)), zap.Any("panic", r))
					mu.Lock()
					result.Channels[ch] = models.ChannelResult{
						Status:    models.DeliveryFailed,
						ErrorKind: models.ErrorKindProvider,
					}
					mu.Unlock()
				}
			}()

			dest := s.destinationFor(ctx, ch, user, record)
			res := s.attemptChannel(ctx, snd, dest, payload, notificationID, 1, "")
			mu.Lock()
			result.Channels[ch] = res
			mu.Unlock()
		}(ch, snd)
	}
	wg.Wait()

	if record != nil {
		result.NotificationID = record.ID
	}
	logger.Info("dispatch complete",
		zap.String("type", string(eventType)),
		zap.String("userId", userID),
		zap.String("dispatchId", result.DispatchID),
		zap.Int("channels", len(result.Channels)))
	return result, nil
}

// resolveChannels intersects requested channels, user preferences and
// channel-specific gating. SMS stays off below high priority even when
// explicitly requested and enabled.
func (s *DefaultNotificationService) resolveChannels(
	ctx context.Context,
	userID string,
	payload models.NotificationPayload,
	opts *DispatchOptions,
) (map[models.NotificationChannel]bool, error) {
	requested := make(map[models.NotificationChannel]bool)
	if len(opts.Channels) == 0 {
		for _, ch := range models.AllChannels {
			requested[ch] = true
		}
	} else {
		for _, ch := range opts.Channels {
			requested[ch] = true
		}
	}

	var prefs *models.ChannelPreferences
	if !opts.SkipPreferences {
		var err error
		prefs, err = s.Prefs.Get(ctx, userID, payload.Type)
		if err != nil {
			return nil, fmt.Errorf("dispatch: preference lookup: %w", err)
		}
	}

	eligible := make(map[models.NotificationChannel]bool)
	for _, ch := range models.AllChannels {
		if ch == models.ChannelWebsocket {
			// websocket mirrors the in-app record, it has no toggle of its own
			continue
		}
		if !requested[ch] {
			continue
		}
		if prefs != nil && !prefs.Enabled(ch) {
			continue
		}
		if ch == models.ChannelSMS && !payload.Priority.AtLeast(models.PriorityHigh) {
			continue
		}
		eligible[ch] = true
	}
	return eligible, nil
}

// enqueueScheduled parks a future dispatch on the delayed queue.
func (s *DefaultNotificationService) enqueueScheduled(
	eventType models.NotificationType,
	userID string,
	data map[string]string,
	opts *DispatchOptions,
) (*models.DispatchResult, error) {
	if s.Queue == nil {
		return nil, errors.New("dispatch: scheduled delivery requires a task queue")
	}
	task, taskOpts, err := tasks.NewDispatchTask(models.DispatchTaskPayload{
		Type:            eventType,
		UserID:          userID,
		Data:            data,
		Channels:        opts.Channels,
		SkipPreferences: opts.SkipPreferences,
		Priority:        opts.Priority,
	}, *opts.ScheduledFor)
	if err != nil {
		return nil, err
	}
	if _, err := s.Queue.Enqueue(task, taskOpts...); err != nil {
		return nil, fmt.Errorf("dispatch: enqueue scheduled: %w", err)
	}
	return &models.DispatchResult{
		DispatchID: uuid.New().String(),
		Scheduled:  true,
		Channels:   map[models.NotificationChannel]models.ChannelResult{},
	}, nil
}

// createInApp writes the durable record and its delivery row. An insert
// failure is recorded like any channel failure and does not abort siblings.
func (s *DefaultNotificationService) createInApp(
	ctx context.Context,
	userID string,
	payload models.NotificationPayload,
	result *models.DispatchResult,
) *models.Notification {
	record, err := s.Inbox.Create(ctx, models.Notification{
		UserID:   userID,
		Type:     payload.Type,
		Title:    payload.Title,
		Body:     payload.Body,
		Data:     payload.Data,
		Category: payload.Category,
		Priority: payload.Priority,
	})
	if err != nil {
		utils.GetLogger().Error("in-app record insert failed",
			zap.String("userId", userID), zap.Error(err))
		result.Channels[models.ChannelInApp] = models.ChannelResult{
			Status:    models.DeliveryFailed,
			ErrorKind: models.ErrorKindProvider,
		}
		return nil
	}

	s.invalidateUnread(ctx, userID)
	s.recordDelivery(ctx, record.ID, userID, payload.Type, models.ChannelInApp,
		models.DeliverySent, models.ErrorKindNone, "", "", 1)
	result.Channels[models.ChannelInApp] = models.ChannelResult{Status: models.DeliverySent}
	return record
}

// broadcastNew mirrors a fresh in-app record to live connections. Best
// effort: no retry, no failure escalation, no delivery row.
func (s *DefaultNotificationService) broadcastNew(
	ctx context.Context,
	userID string,
	payload models.NotificationPayload,
	record *models.Notification,
	result *models.DispatchResult,
) {
	snd, ok := s.Senders[models.ChannelWebsocket]
	if !ok {
		if s.Hub == nil {
			return
		}
		snd = sender.NewWebsocketSender(s.Hub)
	}
	out := snd.Send(ctx, sender.Destination{UserID: userID, Notification: record}, payload)
	status := models.DeliverySent
	if !out.OK {
		status = models.DeliveryFailed
	}
	result.Channels[models.ChannelWebsocket] = models.ChannelResult{
		Status:    status,
		ErrorKind: out.ErrorKind,
	}
}

// destinationFor resolves the address set a channel needs right before the
// attempt, so retries see fresh device and contact data.
func (s *DefaultNotificationService) destinationFor(
	ctx context.Context,
	ch models.NotificationChannel,
	user *models.User,
	record *models.Notification,
) sender.Destination {
	dest := sender.Destination{UserID: user.ID, Notification: record}
	switch ch {
	case models.ChannelPush:
		devices, err := s.Devices.ListForUser(ctx, user.ID)
		if err != nil {
			utils.GetLogger().Warn("device lookup failed",
				zap.String("userId", user.ID), zap.Error(err))
		}
		dest.Devices = devices
	case models.ChannelEmail:
		dest.Email = user.Email
	case models.ChannelSMS:
		dest.Phone = user.PhoneNumber
	}
	return dest
}

// attemptChannel runs one bounded sender call and records its outcome.
// deliveryID is empty on the first attempt and reuses the original row on
// retries.
func (s *DefaultNotificationService) attemptChannel(
	ctx context.Context,
	snd sender.ChannelSender,
	dest sender.Destination,
	payload models.NotificationPayload,
	notificationID string,
	attemptNum int,
	deliveryID string,
) models.ChannelResult {
	if deliveryID == "" {
		deliveryID = s.recordDelivery(ctx, notificationID, dest.UserID, payload.Type,
			snd.Channel(), models.DeliveryPending, models.ErrorKindNone, "", "", 0)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout())
	out := snd.Send(sendCtx, dest, payload)
	cancel()

	// Dead push targets are pruned regardless of the channel outcome:
	// partial success still surfaces 410s for individual devices.
	for _, target := range out.GoneTargets {
		if err := s.Devices.RemoveByTarget(ctx, dest.UserID, target); err != nil {
			utils.GetLogger().Warn("failed to prune dead push target",
				zap.String("userId", dest.UserID), zap.Error(err))
		}
	}

	status := models.DeliverySent
	if !out.OK {
		status = models.DeliveryFailed
	}
	if deliveryID != "" {
		if err := s.Deliveries.UpdateStatus(ctx, deliveryID, status, out.ErrorKind,
			out.Error, out.ProviderMessageID, attemptNum); err != nil {
			utils.GetLogger().Warn("delivery status update failed",
				zap.String("deliveryId", deliveryID), zap.Error(err))
		}
	}

	// Only retry when the pending row exists; a retry without its row would
	// orphan the attempt from delivery bookkeeping.
	if !out.OK && out.ErrorKind.Transient() && deliveryID != "" && attemptNum < maxDeliveryAttempts {
		s.enqueueRetry(dest.UserID, snd.Channel(), payload, deliveryID, attemptNum+1)
	}

	return models.ChannelResult{
		Status:            status,
		ErrorKind:         out.ErrorKind,
		ProviderMessageID: out.ProviderMessageID,
	}
}

func (s *DefaultNotificationService) recordDelivery(
	ctx context.Context,
	notificationID, userID string,
	t models.NotificationType,
	ch models.NotificationChannel,
	status models.DeliveryStatus,
	errKind models.DeliveryErrorKind,
	lastError, providerMessageID string,
	attempts int,
) string {
	rec, err := s.Deliveries.Create(ctx, models.DeliveryRecord{
		NotificationID:    notificationID,
		UserID:            userID,
		Type:              t,
		Channel:           ch,
		Status:            status,
		ErrorKind:         errKind,
		LastError:         lastError,
		ProviderMessageID: providerMessageID,
		AttemptCount:      attempts,
	})
	if err != nil {
		// delivery bookkeeping must never block delivery itself
		utils.GetLogger().Warn("delivery record insert failed",
			zap.String("userId", userID), zap.String("channel", string(ch)), zap.Error(err))
		return ""
	}
	return rec.ID
}

func (s *DefaultNotificationService) enqueueRetry(
	userID string,
	ch models.NotificationChannel,
	payload models.NotificationPayload,
	deliveryID string,
	attempt int,
) {
	if s.Queue == nil {
		return
	}
	task, opts, err := tasks.NewRetryTask(models.RetryTaskPayload{
		DeliveryID: deliveryID,
		UserID:     userID,
		Channel:    ch,
		Payload:    payload,
		Attempt:    attempt,
	}, retryBackoff(attempt))
	if err == nil {
		_, err = s.Queue.Enqueue(task, opts...)
	}
	if err != nil {
		utils.GetLogger().Warn("failed to enqueue channel retry",
			zap.String("userId", userID), zap.String("channel", string(ch)), zap.Error(err))
	}
}

// retryBackoff grows exponentially with the attempt number: 2m, 4m, 8m...
func retryBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Minute
}

// RetryChannel is the worker entry point for a queued retry. It re-resolves
// the destination (devices and contact data may have changed), re-attempts
// the single failed channel, and schedules the next retry itself while
// attempts remain. The in-app record is never re-created here.
func (s *DefaultNotificationService) RetryChannel(ctx context.Context, p models.RetryTaskPayload) error {
	snd, ok := s.Senders[p.Channel]
	if !ok {
		return fmt.Errorf("retry: no sender for channel %q", p.Channel)
	}
	user, err := s.Users.GetByID(ctx, p.UserID)
	if err != nil {
		// recipient may have been deleted since the original dispatch; a
		// queued retry is not a hard stop, just drop it
		utils.GetLogger().Warn("retry dropped, recipient gone",
			zap.String("userId", p.UserID), zap.Error(err))
		return nil
	}

	dest := s.destinationFor(ctx, p.Channel, user, nil)
	res := s.attemptChannel(ctx, snd, dest, p.Payload, "", p.Attempt, p.DeliveryID)

	utils.GetLogger().Info("channel retry finished",
		zap.String("userId", p.UserID),
		zap.String("channel", string(p.Channel)),
		zap.Int("attempt", p.Attempt),
		zap.String("status", string(res.Status)))
	return nil
}
