package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/core/rotation"
	"github.com/jakechorley/rotation-control/pkg/db"
)

// TransitionStore defines the database operations needed by the assign, rotate and postpone commands
type TransitionStore interface {
	GetSensitiveTask(ctx context.Context, id string) (*model.SensitiveTask, error)
	GetPersonnel(ctx context.Context) ([]model.Personnel, error)
	GetPersonnelByID(ctx context.Context, id string) (*model.Personnel, error)
	ApplyTransition(ctx context.Context, task *model.SensitiveTask, expectedVersion int, entry *model.RotationHistoryEntry) error
}

// AssignTask records the initial assignment of personnel to a task awaiting assignment
func AssignTask(ctx context.Context, store TransitionStore, cmd AssignCommand, settings Settings, logger *zap.Logger, now time.Time) (*TransitionResult, error) {
	cmd.normalise()
	logger.Debug("Starting assignTask", zap.String("task_id", cmd.TaskID))

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	task, err := loadTask(ctx, store, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	if task.HasPrimary() {
		return nil, newValidationError("TaskID", "is already assigned; rotate it instead")
	}

	if err := checkPersonnel(ctx, store, "PrimaryID", cmd.PrimaryID); err != nil {
		return nil, err
	}
	if err := checkPersonnel(ctx, store, "BackupID", cmd.BackupID); err != nil {
		return nil, err
	}

	updated, entry, err := rotation.Assign(*task, model.StringPtr(cmd.PrimaryID), model.StringPtr(cmd.BackupID), cmd.PerformedBy, now)
	if err != nil {
		return nil, fmt.Errorf("failed to assign task %s: %w", task.ID, err)
	}

	result, err := applyTransition(ctx, store, task.Version, updated, entry, cmd.IdempotencyKey, settings, now)
	if err != nil {
		return nil, err
	}

	logger.Info("Task assigned",
		zap.String("task_id", task.ID),
		zap.String("primary_id", cmd.PrimaryID),
		zap.String("backup_id", cmd.BackupID),
		zap.String("performed_by", cmd.PerformedBy))

	return result, nil
}

// RotateTask replaces the personnel of an assigned task and restarts its rotation clock
func RotateTask(ctx context.Context, store TransitionStore, cmd RotateCommand, settings Settings, logger *zap.Logger, now time.Time) (*TransitionResult, error) {
	cmd.normalise()
	logger.Debug("Starting rotateTask", zap.String("task_id", cmd.TaskID))

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	task, err := loadTask(ctx, store, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	if !task.HasPrimary() {
		return nil, newValidationError("TaskID", "has no assigned personnel; assign it first")
	}
	if cmd.NewPrimaryID == *task.AssignedPrimaryID {
		return nil, newValidationError("NewPrimaryID", "must differ from the current primary")
	}

	if err := checkPersonnel(ctx, store, "NewPrimaryID", cmd.NewPrimaryID); err != nil {
		return nil, err
	}
	if err := checkPersonnel(ctx, store, "NewBackupID", cmd.NewBackupID); err != nil {
		return nil, err
	}

	updated, entry, err := rotation.Rotate(*task, model.StringPtr(cmd.NewPrimaryID), model.StringPtr(cmd.NewBackupID), cmd.Notes, cmd.PerformedBy, now)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate task %s: %w", task.ID, err)
	}

	result, err := applyTransition(ctx, store, task.Version, updated, entry, cmd.IdempotencyKey, settings, now)
	if err != nil {
		return nil, err
	}

	logger.Info("Task rotated",
		zap.String("task_id", task.ID),
		zap.String("previous_primary_id", model.StringValue(task.AssignedPrimaryID)),
		zap.String("new_primary_id", cmd.NewPrimaryID),
		zap.String("performed_by", cmd.PerformedBy))

	return result, nil
}

// PostponeTask shifts an assigned task's next rotation date without changing personnel
func PostponeTask(ctx context.Context, store TransitionStore, cmd PostponeCommand, settings Settings, logger *zap.Logger, now time.Time) (*TransitionResult, error) {
	cmd.normalise()
	logger.Debug("Starting postponeTask", zap.String("task_id", cmd.TaskID), zap.Int("days", cmd.Days))

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	if limit := settings.maxPostponement(); cmd.Days > limit {
		return nil, newValidationError("Days", "must be at most %d", limit)
	}

	task, err := loadTask(ctx, store, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	if !task.HasPrimary() {
		return nil, newValidationError("TaskID", "has no assigned personnel; assign it first")
	}

	updated, entry, err := rotation.Postpone(*task, cmd.Days, cmd.Reason, cmd.PerformedBy, now)
	if err != nil {
		return nil, fmt.Errorf("failed to postpone task %s: %w", task.ID, err)
	}

	result, err := applyTransition(ctx, store, task.Version, updated, entry, cmd.IdempotencyKey, settings, now)
	if err != nil {
		return nil, err
	}

	logger.Info("Task postponed",
		zap.String("task_id", task.ID),
		zap.Int("days", cmd.Days),
		zap.Time("next_rotation_date", *updated.NextRotationDate),
		zap.String("performed_by", cmd.PerformedBy))

	return result, nil
}

func loadTask(ctx context.Context, store TransitionStore, id string) (*model.SensitiveTask, error) {
	task, err := store.GetSensitiveTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", id, err)
	}
	return task, nil
}

// checkPersonnel rejects unknown or inactive personnel.
// Before any personnel have been imported every id is accepted.
func checkPersonnel(ctx context.Context, store TransitionStore, field, id string) error {
	if id == "" {
		return nil
	}

	person, err := store.GetPersonnelByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		all, err := store.GetPersonnel(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch personnel: %w", err)
		}
		if len(all) == 0 {
			return nil
		}
		return newValidationError(field, "references unknown personnel %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch personnel %s: %w", id, err)
	}

	if !isActive(*person) {
		return newValidationError(field, "references inactive personnel %s (%s)", id, person.Status)
	}
	return nil
}

// isActive treats a blank status as active
func isActive(p model.Personnel) bool {
	return p.Status == "" || strings.EqualFold(p.Status, "active")
}

func applyTransition(ctx context.Context, store TransitionStore, expectedVersion int, updated model.SensitiveTask, entry model.RotationHistoryEntry, key string, settings Settings, now time.Time) (*TransitionResult, error) {
	stampEntry(&entry, key)

	if err := store.ApplyTransition(ctx, &updated, expectedVersion, &entry); err != nil {
		return nil, fmt.Errorf("failed to save %s for task %s: %w", entry.ActionType, updated.ID, err)
	}

	return &TransitionResult{
		Task:   updated,
		Entry:  entry,
		Status: settings.Classifier.Classify(updated, now),
	}, nil
}
