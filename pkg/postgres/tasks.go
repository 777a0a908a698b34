package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/db"
)

const taskColumns = `
	id, title, department, workflow_step_id, rotation_period,
	assigned_primary_id, assigned_backup_id, last_rotation_date, next_rotation_date,
	version, created_at, updated_at`

func scanTask(row pgx.Row) (model.SensitiveTask, error) {
	var t model.SensitiveTask
	var workflowStepID *string
	var period string
	err := row.Scan(
		&t.ID, &t.Title, &t.Department, &workflowStepID, &period,
		&t.AssignedPrimaryID, &t.AssignedBackupID, &t.LastRotationDate, &t.NextRotationDate,
		&t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.SensitiveTask{}, err
	}
	t.WorkflowStepID = model.StringValue(workflowStepID)
	t.RotationPeriod = model.RotationPeriod(period)
	return t, nil
}

// GetSensitiveTasks retrieves all sensitive task records ordered by title
func (d *DB) GetSensitiveTasks(ctx context.Context) ([]model.SensitiveTask, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+taskColumns+` FROM sensitive_task ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensitive tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.SensitiveTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensitive task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sensitive tasks: %w", err)
	}

	return tasks, nil
}

// GetSensitiveTask retrieves a single sensitive task, returning db.ErrNotFound if absent
func (d *DB) GetSensitiveTask(ctx context.Context, id string) (*model.SensitiveTask, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM sensitive_task WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sensitive task %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sensitive task: %w", err)
	}
	return &t, nil
}

// InsertSensitiveTasks inserts task records in a single transaction.
// Tasks whose workflow step was already imported are skipped.
func (d *DB) InsertSensitiveTasks(ctx context.Context, tasks []model.SensitiveTask) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range tasks {
		_, err := tx.Exec(ctx, `
			INSERT INTO sensitive_task (
				id, title, department, workflow_step_id, rotation_period,
				assigned_primary_id, assigned_backup_id, last_rotation_date, next_rotation_date
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (workflow_step_id) DO NOTHING
		`, t.ID, t.Title, t.Department, model.StringPtr(t.WorkflowStepID), string(t.RotationPeriod),
			t.AssignedPrimaryID, t.AssignedBackupID, t.LastRotationDate, t.NextRotationDate)
		if err != nil {
			return fmt.Errorf("failed to insert sensitive task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ApplyTransition writes the audit entry and the updated task in one transaction.
// See db.TransitionStore for the version and idempotency rules.
func (d *DB) ApplyTransition(ctx context.Context, task *model.SensitiveTask, expectedVersion int, entry *model.RotationHistoryEntry) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO rotation_history (
			id, task_id, action_type, action_date,
			previous_primary_id, new_primary_id, previous_backup_id, new_backup_id,
			previous_rotation_date, new_rotation_date,
			performed_by, notes, idempotency_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING created_at
	`, entry.ID, entry.TaskID, string(entry.ActionType), entry.ActionDate.UTC(),
		entry.PreviousPrimaryID, entry.NewPrimaryID, entry.PreviousBackupID, entry.NewBackupID,
		entry.PreviousRotationDate, entry.NewRotationDate,
		entry.PerformedBy, entry.Notes, entry.IdempotencyKey).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// DO NOTHING returns no row when the key already exists
		return fmt.Errorf("idempotency key %s: %w", entry.IdempotencyKey, db.ErrDuplicateAction)
	}
	if err != nil {
		return fmt.Errorf("failed to insert rotation history: %w", err)
	}

	updatedAt := entry.ActionDate.UTC()
	tag, err := tx.Exec(ctx, `
		UPDATE sensitive_task
		SET assigned_primary_id = $3,
			assigned_backup_id = $4,
			last_rotation_date = $5,
			next_rotation_date = $6,
			version = version + 1,
			updated_at = $7
		WHERE id = $1 AND version = $2
	`, task.ID, expectedVersion,
		task.AssignedPrimaryID, task.AssignedBackupID, task.LastRotationDate, task.NextRotationDate,
		updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update sensitive task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sensitive_task WHERE id = $1)`, task.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check sensitive task: %w", err)
		}
		if !exists {
			return fmt.Errorf("sensitive task %s: %w", task.ID, db.ErrNotFound)
		}
		return fmt.Errorf("sensitive task %s at version %d: %w", task.ID, expectedVersion, db.ErrConcurrentUpdate)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	task.Version = expectedVersion + 1
	task.UpdatedAt = updatedAt
	entry.CreatedAt = createdAt.UTC()

	return nil
}
