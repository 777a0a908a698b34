package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

func assignedTask(next *time.Time) model.SensitiveTask {
	return model.SensitiveTask{
		ID:                "task-1",
		RotationPeriod:    model.PeriodQuarterly,
		AssignedPrimaryID: model.StringPtr("person-a"),
		NextRotationDate:  next,
	}
}

func at(t time.Time) *time.Time {
	return &t
}

func TestClassify_AwaitingAssignmentIgnoresDates(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	dates := []*time.Time{
		nil,
		at(now.AddDate(0, 0, -30)),
		at(now.AddDate(0, 0, 5)),
		at(now.AddDate(1, 0, 0)),
	}

	for _, next := range dates {
		task := model.SensitiveTask{ID: "task-1", NextRotationDate: next}
		assert.Equal(t, model.StatusAwaitingAssignment, Classify(task, now))
	}

	// An empty id counts as absent
	empty := ""
	task := model.SensitiveTask{ID: "task-1", AssignedPrimaryID: &empty, NextRotationDate: at(now)}
	assert.Equal(t, model.StatusAwaitingAssignment, Classify(task, now))
}

func TestClassify_Boundaries(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		next     *time.Time
		expected model.TaskStatus
	}{
		{"no due date is normal", nil, model.StatusNormal},
		{"one day ago is overdue", at(now.AddDate(0, 0, -1)), model.StatusRotationOverdue},
		{"one second ago is overdue", at(now.Add(-time.Second)), model.StatusRotationOverdue},
		{"exactly now is due", at(now), model.StatusRotationDue},
		{"fifteen days ahead is due", at(now.AddDate(0, 0, 15)), model.StatusRotationDue},
		{"sixteen days ahead is normal", at(now.AddDate(0, 0, 16)), model.StatusNormal},
		{"far ahead is normal", at(now.AddDate(0, 6, 0)), model.StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(assignedTask(tt.next), now))
		})
	}
}

func TestClassify_CustomWindow(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	task := assignedTask(at(now.AddDate(0, 0, 20)))

	assert.Equal(t, model.StatusNormal, NewClassifier(15).Classify(task, now))
	assert.Equal(t, model.StatusRotationDue, NewClassifier(30).Classify(task, now))
}

func TestNewClassifier_DefaultsNonPositiveWindow(t *testing.T) {
	assert.Equal(t, DefaultDueSoonDays, NewClassifier(0).DueSoonDays)
	assert.Equal(t, DefaultDueSoonDays, NewClassifier(-3).DueSoonDays)
	assert.Equal(t, 7, NewClassifier(7).DueSoonDays)
}

func TestClassify_Idempotent(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	task := assignedTask(at(now.AddDate(0, 0, 3)))

	first := Classify(task, now)
	second := Classify(task, now)

	assert.Equal(t, first, second)
	assert.Equal(t, now.AddDate(0, 0, 3), *task.NextRotationDate, "task must not be modified")
}

func TestDaysUntilDue_Floors(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysUntilDue(now.Add(23*time.Hour), now))
	assert.Equal(t, 1, DaysUntilDue(now.Add(24*time.Hour), now))
	assert.Equal(t, -1, DaysUntilDue(now.Add(-time.Hour), now))
	assert.Equal(t, -2, DaysUntilDue(now.Add(-25*time.Hour), now))
}
