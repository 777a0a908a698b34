package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/db"
)

func sampleTasks() []model.SensitiveTask {
	overdue := assignedTask("overdue", "A", "B", day(2025, 5, 1))
	overdue.Title = "Payment approval"
	due := assignedTask("due", "C", "", day(2025, 5, 20))
	due.Title = "Tender evaluation"
	normal := assignedTask("normal", "D", "E", day(2025, 9, 1))
	normal.Title = "Stock count"
	waiting := unassignedTask("waiting")
	waiting.Title = "Licence issuing"
	return []model.SensitiveTask{normal, waiting, due, overdue}
}

func taskIDs(views []TaskView) []string {
	var ids []string
	for _, v := range views {
		ids = append(ids, v.Task.ID)
	}
	return ids
}

func TestListTasks_SortedByNextDate(t *testing.T) {
	store := newMockStore(sampleTasks()...)

	views, err := ListTasks(context.Background(), store, DefaultSettings(), zap.NewNop(), testNow, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"overdue", "due", "normal", "waiting"}, taskIDs(views))
	assert.Equal(t, model.StatusRotationOverdue, views[0].Status)
	assert.Equal(t, model.StatusRotationDue, views[1].Status)
	assert.Equal(t, model.StatusNormal, views[2].Status)
	assert.Equal(t, model.StatusAwaitingAssignment, views[3].Status)

	require.NotNil(t, views[0].DaysUntilDue)
	assert.Equal(t, -10, *views[0].DaysUntilDue)
	assert.Nil(t, views[3].DaysUntilDue)
}

func TestListTasks_StatusFilter(t *testing.T) {
	store := newMockStore(sampleTasks()...)
	status := model.StatusRotationDue

	views, err := ListTasks(context.Background(), store, DefaultSettings(), zap.NewNop(), testNow, &status)
	require.NoError(t, err)
	assert.Equal(t, []string{"due"}, taskIDs(views))
}

func TestListTasks_InvalidStatus(t *testing.T) {
	store := newMockStore(sampleTasks()...)
	status := model.TaskStatus("archived")

	_, err := ListTasks(context.Background(), store, DefaultSettings(), zap.NewNop(), testNow, &status)
	assert.True(t, IsValidationError(err))
}

func TestListTasks_StoreError(t *testing.T) {
	store := newMockStore()
	store.getTasksErr = errors.New("connection refused")

	_, err := ListTasks(context.Background(), store, DefaultSettings(), zap.NewNop(), testNow, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch tasks")
}

func TestGetTask(t *testing.T) {
	store := newMockStore(sampleTasks()...)

	view, err := GetTask(context.Background(), store, DefaultSettings(), "due", testNow)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRotationDue, view.Status)
	assert.Equal(t, 9, *view.DaysUntilDue)

	_, err = GetTask(context.Background(), store, DefaultSettings(), "missing", testNow)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestTaskHistory_NewestFirst(t *testing.T) {
	store := newMockStore(unassignedTask("task-1"))
	ctx := context.Background()
	logger := zap.NewNop()

	_, err := AssignTask(ctx, store, AssignCommand{TaskID: "task-1", PrimaryID: "A", BackupID: "B", PerformedBy: "officer"}, DefaultSettings(), logger, testNow)
	require.NoError(t, err)
	_, err = PostponeTask(ctx, store, PostponeCommand{TaskID: "task-1", Days: 10, Reason: "audit", PerformedBy: "officer"}, DefaultSettings(), logger, testNow.Add(time.Hour))
	require.NoError(t, err)
	_, err = RotateTask(ctx, store, RotateCommand{TaskID: "task-1", NewPrimaryID: "C", NewBackupID: "A", PerformedBy: "officer"}, DefaultSettings(), logger, testNow.Add(2*time.Hour))
	require.NoError(t, err)

	result, err := TaskHistory(ctx, store, logger, "task-1")
	require.NoError(t, err)

	var actions []model.ActionType
	for _, e := range result.Entries {
		actions = append(actions, e.ActionType)
	}
	want := []model.ActionType{model.ActionRotation, model.ActionPostponement, model.ActionInitialAssignment}
	if diff := cmp.Diff(want, actions); diff != "" {
		t.Errorf("history order mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, result.IntegrityIssue)
	assert.Equal(t, "C", *result.Task.AssignedPrimaryID)
}

func TestTaskHistory_ReportsIntegrityIssue(t *testing.T) {
	// Assigned task with no audit trail
	store := newMockStore(assignedTask("task-1", "A", "B", day(2025, 6, 1)))

	result, err := TaskHistory(context.Background(), store, zap.NewNop(), "task-1")
	require.NoError(t, err)
	assert.Contains(t, result.IntegrityIssue, "data integrity violation")
	assert.Empty(t, result.Entries)
}

func TestViewAlerts(t *testing.T) {
	store := newMockStore(sampleTasks()...)

	result, err := ViewAlerts(context.Background(), store, DefaultSettings(), zap.NewNop(), testNow)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TaskCount)
	// overdue(high), no_assignment(high), due_soon(medium), no_backup(medium) for "due" and "waiting"
	assert.Equal(t, 2, result.BySeverity[model.SeverityHigh])
	assert.Equal(t, 3, result.BySeverity[model.SeverityMedium])
	require.Len(t, result.Alerts, 5)
	assert.Equal(t, model.SeverityHigh, result.Alerts[0].Severity)
	assert.Equal(t, model.SeverityHigh, result.Alerts[1].Severity)
}

func TestListPersonnel(t *testing.T) {
	store := newMockStore()
	store.personnel = []model.Personnel{
		{ID: "1", FirstName: "Mehmet", LastName: "Kaya", Status: "Active"},
		{ID: "2", FirstName: "Ayşe", LastName: "Yılmaz", Status: "active"},
		{ID: "3", FirstName: "Mehmet", LastName: "Demir", Status: "Inactive"},
		{ID: "4", FirstName: "Zeynep", LastName: "Arslan"},
	}

	all, err := ListPersonnel(context.Background(), store, false)
	require.NoError(t, err)
	var names []string
	for _, p := range all {
		names = append(names, p.DisplayName)
	}
	assert.Equal(t, []string{"Ayşe", "Mehmet D.", "Mehmet K.", "Zeynep"}, names)

	active, err := ListPersonnel(context.Background(), store, true)
	require.NoError(t, err)
	var ids []string
	for _, p := range active {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"2", "1", "4"}, ids)
}
