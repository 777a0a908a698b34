package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/rotation-control/internal/config"
	"github.com/jakechorley/rotation-control/pkg/clients/sheetsclient"
	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// WorkflowClient defines the sheets operation needed to import tasks
type WorkflowClient interface {
	ListWorkflowSteps(ctx context.Context, cfg *config.SheetsConfig) ([]sheetsclient.WorkflowStep, error)
}

// PersonnelClient defines the sheets operation needed to import personnel
type PersonnelClient interface {
	ListPersonnel(ctx context.Context, cfg *config.SheetsConfig) ([]model.Personnel, error)
}

// TaskImportStore defines the database operations needed by ImportTasks
type TaskImportStore interface {
	GetSensitiveTasks(ctx context.Context) ([]model.SensitiveTask, error)
	InsertSensitiveTasks(ctx context.Context, tasks []model.SensitiveTask) error
}

// PersonnelImportStore defines the database operation needed by ImportPersonnel
type PersonnelImportStore interface {
	UpsertPersonnel(ctx context.Context, personnel []model.Personnel) error
}

// ImportTasksResult summarises one workflow import
type ImportTasksResult struct {
	Imported        []model.SensitiveTask
	AlreadyImported int
	NotSensitive    int
}

// ImportTasks creates a task awaiting assignment for every sensitive workflow step not yet imported
func ImportTasks(ctx context.Context, store TaskImportStore, client WorkflowClient, cfg *config.Config, logger *zap.Logger) (*ImportTasksResult, error) {
	if cfg.Sheets == nil {
		return nil, fmt.Errorf("sheets are not configured")
	}

	logger.Debug("Starting importTasks", zap.String("sheet_id", cfg.Sheets.WorkflowSheetID))

	steps, err := client.ListWorkflowSteps(ctx, cfg.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow steps: %w", err)
	}

	existing, err := store.GetSensitiveTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	imported := make(map[string]bool, len(existing))
	for _, task := range existing {
		if task.WorkflowStepID != "" {
			imported[task.WorkflowStepID] = true
		}
	}

	result := &ImportTasksResult{}
	var tasks []model.SensitiveTask
	for _, step := range steps {
		if !step.Sensitive {
			result.NotSensitive++
			continue
		}
		if imported[step.ID] {
			result.AlreadyImported++
			continue
		}
		imported[step.ID] = true

		tasks = append(tasks, model.SensitiveTask{
			ID:             uuid.NewString(),
			Title:          step.Title,
			Department:     step.Department,
			WorkflowStepID: step.ID,
			RotationPeriod: step.RotationPeriod,
		})
	}

	if err := store.InsertSensitiveTasks(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to insert tasks: %w", err)
	}
	result.Imported = tasks

	logger.Info("Imported sensitive tasks",
		zap.Int("imported", len(tasks)),
		zap.Int("already_imported", result.AlreadyImported),
		zap.Int("not_sensitive", result.NotSensitive))

	return result, nil
}

// ImportPersonnel copies the personnel sheet into the store, refreshing existing records
func ImportPersonnel(ctx context.Context, store PersonnelImportStore, client PersonnelClient, cfg *config.Config, logger *zap.Logger) (int, error) {
	if cfg.Sheets == nil {
		return 0, fmt.Errorf("sheets are not configured")
	}

	personnel, err := client.ListPersonnel(ctx, cfg.Sheets)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch personnel: %w", err)
	}

	if err := store.UpsertPersonnel(ctx, personnel); err != nil {
		return 0, fmt.Errorf("failed to save personnel: %w", err)
	}

	logger.Info("Imported personnel", zap.Int("count", len(personnel)))

	return len(personnel), nil
}
