package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// GetRotationHistory retrieves the audit log for a task, oldest first
func (d *DB) GetRotationHistory(ctx context.Context, taskID string) ([]model.RotationHistoryEntry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, task_id, action_type, action_date,
			previous_primary_id, new_primary_id, previous_backup_id, new_backup_id,
			previous_rotation_date, new_rotation_date,
			performed_by, notes, idempotency_key, created_at
		FROM rotation_history
		WHERE task_id = $1
		ORDER BY action_date, created_at
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rotation history: %w", err)
	}
	defer rows.Close()

	var entries []model.RotationHistoryEntry
	for rows.Next() {
		var e model.RotationHistoryEntry
		var actionType string
		if err := rows.Scan(
			&e.ID, &e.TaskID, &actionType, &e.ActionDate,
			&e.PreviousPrimaryID, &e.NewPrimaryID, &e.PreviousBackupID, &e.NewBackupID,
			&e.PreviousRotationDate, &e.NewRotationDate,
			&e.PerformedBy, &e.Notes, &e.IdempotencyKey, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rotation history: %w", err)
		}
		e.ActionType = model.ActionType(actionType)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rotation history: %w", err)
	}

	return entries, nil
}
