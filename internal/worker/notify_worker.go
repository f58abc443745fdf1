package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hostelbook/internal/database"
	"hostelbook/internal/domain"
	"hostelbook/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskBookingCreated   = "booking_created"
	TaskWaitlistPromoted = "waitlist_promoted"
)

// bookingPayload is what the services enqueue for both task types: the
// booking the user should hear about.
type bookingPayload struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// NotifyWorker drains the notify_queue outbox and hands messages to the
// delivery collaborator. Tasks survive restarts in the database; redis is the
// fast path, the in-memory channel and the poller are fallbacks.
type NotifyWorker struct {
	db            *database.DB
	notifier      domain.Notifier
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.NotifyTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewNotifyWorker builds a worker with sane defaults.
func NewNotifyWorker(db *database.DB, notifier domain.Notifier, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	defaults := DefaultRetryPolicy()
	if retry.MaxRetries == 0 {
		retry.MaxRetries = defaults.MaxRetries
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = defaults.InitialDelay
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = defaults.MaxDelay
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = defaults.BackoffFactor
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	return &NotifyWorker{
		db:            db,
		notifier:      notifier,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.NotifyTask, 128),
		redisQueueKey: "notify:queue",
		deadLetterKey: "notify:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueNotification persists the task to the outbox and schedules it via
// redis or the in-memory queue.
func (w *NotifyWorker) EnqueueNotification(ctx context.Context, taskType, userID string, payload interface{}) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if userID == "" {
		return errors.New("user id is required")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.NotifyTask{
		TaskType: taskType,
		UserID:   userID,
		Payload:  string(payloadBytes),
		Status:   models.NotifyTaskPending,
	}

	if err := w.db.CreateNotifyTask(ctx, &task); err != nil {
		return fmt.Errorf("persist notify task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("notify_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("notify_worker: in-memory queue full, task dropped to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("notify_worker: started")
	defer w.logger.Info().Msg("notify_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingNotifyTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("notify_worker: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *NotifyWorker) tryLocalQueue() (models.NotifyTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.NotifyTask{}, false
	}
}

func (w *NotifyWorker) tryRedis(ctx context.Context) (models.NotifyTask, bool) {
	if w.redis == nil {
		return models.NotifyTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.NotifyTask{}, false
		}
		w.logger.Error().Err(err).Msg("notify_worker: redis BRPOP error")
		return models.NotifyTask{}, false
	}
	if len(res) != 2 {
		return models.NotifyTask{}, false
	}
	var task models.NotifyTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("notify_worker: decode redis task")
		return models.NotifyTask{}, false
	}
	return task, true
}

func (w *NotifyWorker) processTask(ctx context.Context, task *models.NotifyTask) {
	message, err := w.buildMessage(task.TaskType, task.Payload)
	if err != nil {
		w.failTask(ctx, task, err)
		return
	}

	if err := w.notifier.Notify(ctx, task.UserID, message); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.MarkNotifyTaskDone(ctx, task.ID); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify_worker: mark done")
	}
}

func (w *NotifyWorker) buildMessage(taskType, raw string) (string, error) {
	var p bookingPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}

	window := fmt.Sprintf("%s–%s",
		p.StartTime.Local().Format("15:04"), p.EndTime.Local().Format("15:04"))

	switch taskType {
	case TaskBookingCreated:
		return fmt.Sprintf("Booking confirmed: %s, %s.", p.ResourceID, window), nil
	case TaskWaitlistPromoted:
		return fmt.Sprintf("A slot freed up and is now yours: %s, %s.", p.ResourceID, window), nil
	default:
		return "", fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *NotifyWorker) retryOrFail(ctx context.Context, task *models.NotifyTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.MarkNotifyTaskFailed(ctx, task.ID, cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify_worker: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.MarkNotifyTaskFailed(ctx, task.ID, cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify_worker: mark retry")
	}
}

func (w *NotifyWorker) failTask(ctx context.Context, task *models.NotifyTask, err error) {
	if merr := w.db.MarkNotifyTaskFailed(ctx, task.ID, err.Error(), nil); merr != nil {
		w.logger.Error().Err(merr).Int64("task_id", task.ID).Msg("notify_worker: mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *NotifyWorker) pushRedis(ctx context.Context, task models.NotifyTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *NotifyWorker) pushDeadLetter(ctx context.Context, task *models.NotifyTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify_worker: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify_worker: deadletter push")
	}
}
