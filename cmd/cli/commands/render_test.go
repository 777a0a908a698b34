package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/core/services"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status   model.TaskStatus
		expected *color.Color
	}{
		{model.StatusRotationOverdue, color.New(color.FgRed, color.Bold)},
		{model.StatusRotationDue, color.New(color.FgYellow)},
		{model.StatusAwaitingAssignment, color.New(color.FgMagenta)},
		{model.StatusNormal, color.New(color.FgGreen)},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, statusColor(tt.status).Equals(tt.expected))
		})
	}
}

func TestSeverityColor(t *testing.T) {
	assert.True(t, severityColor(model.SeverityHigh).Equals(color.New(color.FgRed, color.Bold)))
	assert.True(t, severityColor(model.SeverityMedium).Equals(color.New(color.FgYellow)))
}

func TestRenderTasks(t *testing.T) {
	next := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	days := 22

	views := []services.TaskView{
		{
			Task: model.SensitiveTask{
				ID:                "task-1",
				Title:             "Approve supplier payments",
				RotationPeriod:    model.PeriodQuarterly,
				AssignedPrimaryID: model.StringPtr("alice"),
				NextRotationDate:  &next,
			},
			Status:       model.StatusNormal,
			DaysUntilDue: &days,
		},
		{
			Task:   model.SensitiveTask{ID: "task-2", Title: "Sign tenders", RotationPeriod: model.PeriodAnnual},
			Status: model.StatusAwaitingAssignment,
		},
	}

	var buf bytes.Buffer
	renderTasks(&buf, views)
	out := buf.String()

	assert.Contains(t, out, "Approve supplier payments")
	assert.Contains(t, out, "2025-06-01")
	assert.Contains(t, out, "normal (22d)")
	assert.Contains(t, out, "awaiting_assignment")
	assert.NotContains(t, out, "awaiting_assignment (")
}

func TestRenderTasks_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderTasks(&buf, nil)
	assert.Equal(t, "No tasks found\n", buf.String())
}

func TestRenderAlerts(t *testing.T) {
	result := &services.AlertsResult{
		Alerts: []model.Alert{
			{TaskID: "task-2", TaskTitle: "Sign tenders", Kind: model.AlertNoAssignment, Severity: model.SeverityHigh, Message: "No primary assignee"},
			{TaskID: "task-1", TaskTitle: "Approve payments", Kind: model.AlertNoBackup, Severity: model.SeverityMedium, Message: "No backup assignee"},
		},
		BySeverity: map[model.AlertSeverity]int{model.SeverityHigh: 1, model.SeverityMedium: 1},
		TaskCount:  2,
	}

	var buf bytes.Buffer
	renderAlerts(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "2 alerts across 2 tasks (1 high, 1 medium)")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "Sign tenders: No primary assignee")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("HIGH")), bytes.Index(buf.Bytes(), []byte("MEDIUM")))
}

func TestRenderAlerts_None(t *testing.T) {
	var buf bytes.Buffer
	renderAlerts(&buf, &services.AlertsResult{TaskCount: 4})
	assert.Contains(t, buf.String(), "No alerts across 4 tasks")
}

func TestRenderHistory(t *testing.T) {
	prev := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	next := prev.AddDate(0, 0, 30)

	result := &services.TaskHistoryResult{
		Task: model.SensitiveTask{ID: "task-1", Title: "Approve payments"},
		Entries: []model.RotationHistoryEntry{
			{
				ActionType:           model.ActionPostponement,
				ActionDate:           time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC),
				PreviousRotationDate: &prev,
				NewRotationDate:      &next,
				PerformedBy:          "manager",
				Notes:                "30 gün ertelendi. Gerekçe: audit",
			},
			{
				ActionType:      model.ActionInitialAssignment,
				ActionDate:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
				NewPrimaryID:    model.StringPtr("alice"),
				NewRotationDate: &prev,
				PerformedBy:     "manager",
			},
		},
		IntegrityIssue: "history gap detected",
	}

	var buf bytes.Buffer
	renderHistory(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "History for Approve payments (task-1)")
	assert.Contains(t, out, "! history gap detected")
	assert.Contains(t, out, "next rotation 2025-06-01 -> 2025-07-01")
	assert.Contains(t, out, "primary - -> alice")
	assert.Contains(t, out, "Gerekçe: audit")
}

func TestRenderPersonnel(t *testing.T) {
	var buf bytes.Buffer
	renderPersonnel(&buf, []model.Personnel{
		{ID: "p1", DisplayName: "Alice", Status: "Active"},
		{ID: "p2", DisplayName: "Bob", Status: "Left"},
	})

	out := buf.String()
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Left")
}
