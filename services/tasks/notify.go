package tasks

import (
	"chefly/models"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeDispatchSend delivers a dispatch whose scheduledFor was in the future.
	TypeDispatchSend = "notification:dispatch"
	// TypeChannelRetry re-attempts a single channel after a transient failure.
	TypeChannelRetry = "notification:retry"
)

// Enqueuer is the producing side of the task queue; *asynq.Client satisfies it.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewDispatchTask builds a delayed dispatch task firing at processAt.
func NewDispatchTask(payload models.DispatchTaskPayload, processAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeDispatchSend, b)
	opts := []asynq.Option{asynq.ProcessAt(processAt)}

	return task, opts, nil
}

// NewRetryTask builds a single-channel retry task firing after processIn.
// Retry bookkeeping (attempt counts, backoff, give-up) is handled by the
// dispatcher, so the queue's own retry machinery is disabled.
func NewRetryTask(payload models.RetryTaskPayload, processIn time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeChannelRetry, b)
	opts := []asynq.Option{asynq.ProcessIn(processIn), asynq.MaxRetry(0)}

	return task, opts, nil
}
