package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/rotation-control/pkg/clients/sheetsclient"
	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/core/rotation"
	"github.com/jakechorley/rotation-control/pkg/db"
)

// TaskView is a task together with its status as of the time it was read
type TaskView struct {
	Task         model.SensitiveTask
	Status       model.TaskStatus
	DaysUntilDue *int
}

// TaskReader defines the task queries needed by the read services
type TaskReader interface {
	GetSensitiveTasks(ctx context.Context) ([]model.SensitiveTask, error)
	GetSensitiveTask(ctx context.Context, id string) (*model.SensitiveTask, error)
}

func newTaskView(task model.SensitiveTask, classifier rotation.Classifier, now time.Time) TaskView {
	view := TaskView{Task: task, Status: classifier.Classify(task, now)}
	if task.NextRotationDate != nil {
		days := rotation.DaysUntilDue(*task.NextRotationDate, now)
		view.DaysUntilDue = &days
	}
	return view
}

// ListTasks classifies every task, optionally keeping only one status.
// Tasks are ordered by next rotation date with undated tasks last.
func ListTasks(ctx context.Context, store TaskReader, settings Settings, logger *zap.Logger, now time.Time, status *model.TaskStatus) ([]TaskView, error) {
	if status != nil && !status.IsValid() {
		return nil, newValidationError("status", "must be one of normal, rotation_due, rotation_overdue, awaiting_assignment")
	}

	tasks, err := store.GetSensitiveTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		view := newTaskView(task, settings.Classifier, now)
		if status != nil && view.Status != *status {
			continue
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].Task.NextRotationDate, views[j].Task.NextRotationDate
		switch {
		case a == nil && b == nil:
			return views[i].Task.Title < views[j].Task.Title
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return views[i].Task.Title < views[j].Task.Title
	})

	logger.Debug("Listed tasks", zap.Int("total", len(tasks)), zap.Int("returned", len(views)))

	return views, nil
}

// GetTask returns one classified task
func GetTask(ctx context.Context, store TaskReader, settings Settings, id string, now time.Time) (*TaskView, error) {
	task, err := store.GetSensitiveTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", id, err)
	}

	view := newTaskView(*task, settings.Classifier, now)
	return &view, nil
}

// HistoryReader defines the queries needed to show a task's audit log
type HistoryReader interface {
	GetSensitiveTask(ctx context.Context, id string) (*model.SensitiveTask, error)
	GetRotationHistory(ctx context.Context, taskID string) ([]model.RotationHistoryEntry, error)
}

// TaskHistoryResult holds a task's audit log, newest entry first
type TaskHistoryResult struct {
	Task    model.SensitiveTask
	Entries []model.RotationHistoryEntry
	// IntegrityIssue describes a break in the audit chain, empty when the log is consistent
	IntegrityIssue string
}

// TaskHistory fetches a task's audit log and checks that it explains the task's current state
func TaskHistory(ctx context.Context, store HistoryReader, logger *zap.Logger, taskID string) (*TaskHistoryResult, error) {
	task, err := store.GetSensitiveTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	entries, err := store.GetRotationHistory(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for task %s: %w", taskID, err)
	}

	db.SortHistory(entries)

	result := &TaskHistoryResult{Task: *task}
	if err := db.CheckHistoryIntegrity(*task, entries); err != nil {
		logger.Warn("Rotation history integrity check failed", zap.String("task_id", taskID), zap.Error(err))
		result.IntegrityIssue = err.Error()
	}

	// newest first
	result.Entries = make([]model.RotationHistoryEntry, len(entries))
	for i, entry := range entries {
		result.Entries[len(entries)-1-i] = entry
	}

	return result, nil
}

// AlertsResult is the alert sweep over all tasks
type AlertsResult struct {
	Alerts     []model.Alert
	BySeverity map[model.AlertSeverity]int
	TaskCount  int
}

// ViewAlerts runs the alert generator over every task
func ViewAlerts(ctx context.Context, store TaskReader, settings Settings, logger *zap.Logger, now time.Time) (*AlertsResult, error) {
	tasks, err := store.GetSensitiveTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	alerts := settings.Classifier.Alerts(tasks, now)

	logger.Debug("Generated alerts", zap.Int("tasks", len(tasks)), zap.Int("alerts", len(alerts)))

	return &AlertsResult{
		Alerts:     alerts,
		BySeverity: rotation.CountBySeverity(alerts),
		TaskCount:  len(tasks),
	}, nil
}

// PersonnelReader defines the personnel query needed by ListPersonnel
type PersonnelReader interface {
	GetPersonnel(ctx context.Context) ([]model.Personnel, error)
}

// ListPersonnel returns personnel ordered by display name, optionally only active staff
func ListPersonnel(ctx context.Context, store PersonnelReader, activeOnly bool) ([]model.Personnel, error) {
	personnel, err := store.GetPersonnel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch personnel: %w", err)
	}

	sheetsclient.ComputeDisplayNames(personnel)

	result := make([]model.Personnel, 0, len(personnel))
	for _, p := range personnel {
		if activeOnly && !isActive(p) {
			continue
		}
		result = append(result, p)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DisplayName < result[j].DisplayName
	})

	return result, nil
}
