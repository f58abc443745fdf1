package database

import (
	"context"
	"fmt"
	"time"

	"hostelbook/internal/models"
)

// CreateNotifyTask persists a notification job to the outbox.
func (db *DB) CreateNotifyTask(ctx context.Context, task *models.NotifyTask) error {
	query := `INSERT INTO notify_queue (task_type, user_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	if task.Status == "" {
		task.Status = models.NotifyTaskPending
	}
	result, err := db.ExecContext(ctx, query,
		task.TaskType, task.UserID, task.Payload, task.Status,
		task.RetryCount, task.LastError, now, task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notify task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingNotifyTasks возвращает задачи, готовые к обработке
func (db *DB) GetPendingNotifyTasks(ctx context.Context, limit int) ([]models.NotifyTask, error) {
	query := `SELECT id, task_type, user_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM notify_queue
              WHERE status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, models.NotifyTaskPending, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notify tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.NotifyTask
	for rows.Next() {
		var t models.NotifyTask
		if err := rows.Scan(
			&t.ID, &t.TaskType, &t.UserID, &t.Payload, &t.Status,
			&t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notify task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// MarkNotifyTaskDone помечает задачу выполненной
func (db *DB) MarkNotifyTaskDone(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`UPDATE notify_queue SET status = ?, processed_at = ? WHERE id = ?`,
		models.NotifyTaskDone, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notify task done: %w", err)
	}
	return nil
}

// MarkNotifyTaskFailed records the error and either schedules a retry or
// parks the task as failed once retries are exhausted.
func (db *DB) MarkNotifyTaskFailed(ctx context.Context, id int64, lastError string, nextRetryAt *time.Time) error {
	status := models.NotifyTaskPending
	if nextRetryAt == nil {
		status = models.NotifyTaskFailed
	}
	_, err := db.ExecContext(ctx,
		`UPDATE notify_queue SET status = ?, retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`,
		status, lastError, nextRetryAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notify task failed: %w", err)
	}
	return nil
}
