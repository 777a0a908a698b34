package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// GetRotationHistory retrieves the audit log for a task, oldest first
func (d *DB) GetRotationHistory(ctx context.Context, taskID string) ([]model.RotationHistoryEntry, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, task_id, action_type, action_date,
			previous_primary_id, new_primary_id, previous_backup_id, new_backup_id,
			previous_rotation_date, new_rotation_date,
			performed_by, notes, idempotency_key, created_at
		FROM rotation_history
		WHERE task_id = ?
		ORDER BY action_date, created_at
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rotation history: %w", err)
	}
	defer rows.Close()

	var entries []model.RotationHistoryEntry
	for rows.Next() {
		var e model.RotationHistoryEntry
		var actionType, actionDate, createdAt string
		var prevPrimary, newPrimary, prevBackup, newBackup, prevDate, newDate sql.NullString

		if err := rows.Scan(
			&e.ID, &e.TaskID, &actionType, &actionDate,
			&prevPrimary, &newPrimary, &prevBackup, &newBackup,
			&prevDate, &newDate,
			&e.PerformedBy, &e.Notes, &e.IdempotencyKey, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rotation history: %w", err)
		}

		e.ActionType = model.ActionType(actionType)
		e.PreviousPrimaryID = stringPtr(prevPrimary)
		e.NewPrimaryID = stringPtr(newPrimary)
		e.PreviousBackupID = stringPtr(prevBackup)
		e.NewBackupID = stringPtr(newBackup)

		if e.ActionDate, err = parseTimestamp(actionDate); err != nil {
			return nil, fmt.Errorf("failed to parse rotation history %s: %w", e.ID, err)
		}
		if e.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse rotation history %s: %w", e.ID, err)
		}
		if e.PreviousRotationDate, err = parseDate(prevDate); err != nil {
			return nil, fmt.Errorf("failed to parse rotation history %s: %w", e.ID, err)
		}
		if e.NewRotationDate, err = parseDate(newDate); err != nil {
			return nil, fmt.Errorf("failed to parse rotation history %s: %w", e.ID, err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rotation history: %w", err)
	}

	return entries, nil
}
