package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/db"
)

const taskColumns = `
	id, title, department, workflow_step_id, rotation_period,
	assigned_primary_id, assigned_backup_id, last_rotation_date, next_rotation_date,
	version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.SensitiveTask, error) {
	var t model.SensitiveTask
	var period, createdAt, updatedAt string
	var workflowStepID, primaryID, backupID, lastDate, nextDate sql.NullString

	err := row.Scan(
		&t.ID, &t.Title, &t.Department, &workflowStepID, &period,
		&primaryID, &backupID, &lastDate, &nextDate,
		&t.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.SensitiveTask{}, err
	}

	t.WorkflowStepID = workflowStepID.String
	t.RotationPeriod = model.RotationPeriod(period)
	t.AssignedPrimaryID = stringPtr(primaryID)
	t.AssignedBackupID = stringPtr(backupID)

	if t.LastRotationDate, err = parseDate(lastDate); err != nil {
		return model.SensitiveTask{}, err
	}
	if t.NextRotationDate, err = parseDate(nextDate); err != nil {
		return model.SensitiveTask{}, err
	}
	if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return model.SensitiveTask{}, err
	}
	if t.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return model.SensitiveTask{}, err
	}

	return t, nil
}

// GetSensitiveTasks retrieves all sensitive task records ordered by title
func (d *DB) GetSensitiveTasks(ctx context.Context) ([]model.SensitiveTask, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT `+taskColumns+` FROM sensitive_task ORDER BY title, id`)
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
	row := d.conn.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM sensitive_task WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
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

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTimestamp(d.now())
	for _, t := range tasks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sensitive_task (
				id, title, department, workflow_step_id, rotation_period,
				assigned_primary_id, assigned_backup_id, last_rotation_date, next_rotation_date,
				created_at, updated_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (workflow_step_id) DO NOTHING
		`, t.ID, t.Title, t.Department, nullString(model.StringPtr(t.WorkflowStepID)), string(t.RotationPeriod),
			nullString(t.AssignedPrimaryID), nullString(t.AssignedBackupID),
			formatDate(t.LastRotationDate), formatDate(t.NextRotationDate),
			now, now)
		if err != nil {
			return fmt.Errorf("failed to insert sensitive task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ApplyTransition writes the audit entry and the updated task in one transaction.
// See db.TransitionStore for the version and idempotency rules.
func (d *DB) ApplyTransition(ctx context.Context, task *model.SensitiveTask, expectedVersion int, entry *model.RotationHistoryEntry) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := d.now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO rotation_history (
			id, task_id, action_type, action_date,
			previous_primary_id, new_primary_id, previous_backup_id, new_backup_id,
			previous_rotation_date, new_rotation_date,
			performed_by, notes, idempotency_key, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, entry.ID, entry.TaskID, string(entry.ActionType), formatTimestamp(entry.ActionDate),
		nullString(entry.PreviousPrimaryID), nullString(entry.NewPrimaryID),
		nullString(entry.PreviousBackupID), nullString(entry.NewBackupID),
		formatDate(entry.PreviousRotationDate), formatDate(entry.NewRotationDate),
		entry.PerformedBy, entry.Notes, entry.IdempotencyKey, formatTimestamp(createdAt))
	if err != nil {
		return fmt.Errorf("failed to insert rotation history: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	} else if n == 0 {
		return fmt.Errorf("idempotency key %s: %w", entry.IdempotencyKey, db.ErrDuplicateAction)
	}

	updatedAt := entry.ActionDate.UTC()
	res, err = tx.ExecContext(ctx, `
		UPDATE sensitive_task
		SET assigned_primary_id = ?,
			assigned_backup_id = ?,
			last_rotation_date = ?,
			next_rotation_date = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?
	`, nullString(task.AssignedPrimaryID), nullString(task.AssignedBackupID),
		formatDate(task.LastRotationDate), formatDate(task.NextRotationDate),
		formatTimestamp(updatedAt), task.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update sensitive task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sensitive_task WHERE id = ?)`, task.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check sensitive task: %w", err)
		}
		if !exists {
			return fmt.Errorf("sensitive task %s: %w", task.ID, db.ErrNotFound)
		}
		return fmt.Errorf("sensitive task %s at version %d: %w", task.ID, expectedVersion, db.ErrConcurrentUpdate)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	task.Version = expectedVersion + 1
	task.UpdatedAt = updatedAt
	entry.CreatedAt = createdAt.UTC()

	return nil
}
