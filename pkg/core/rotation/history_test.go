package rotation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

func TestRecordTransition_Rotation(t *testing.T) {
	next := date(2025, 4, 10)
	task := model.SensitiveTask{
		ID:                "task-1",
		RotationPeriod:    model.PeriodQuarterly,
		AssignedPrimaryID: model.StringPtr("A"),
		AssignedBackupID:  model.StringPtr("B"),
		NextRotationDate:  &next,
	}
	actionDate := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	newDate := date(2025, 7, 2)

	entry, err := RecordTransition(task, Transition{
		Action:          model.ActionRotation,
		NewPrimaryID:    model.StringPtr("C"),
		NewBackupID:     nil,
		PerformedBy:     "officer",
		ActionDate:      actionDate,
		NewRotationDate: &newDate,
	})
	require.NoError(t, err)

	expected := model.RotationHistoryEntry{
		TaskID:               "task-1",
		ActionType:           model.ActionRotation,
		ActionDate:           actionDate,
		PreviousPrimaryID:    model.StringPtr("A"),
		NewPrimaryID:         model.StringPtr("C"),
		PreviousBackupID:     model.StringPtr("B"),
		NewBackupID:          nil,
		PreviousRotationDate: &next,
		NewRotationDate:      &newDate,
		PerformedBy:          "officer",
	}
	if diff := cmp.Diff(expected, entry); diff != "" {
		t.Errorf("history entry mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordTransition_InitialAssignmentHasNoPrevious(t *testing.T) {
	// Even when the task somehow carries personnel, a first assignment records none
	task := model.SensitiveTask{
		ID:                "task-1",
		AssignedPrimaryID: model.StringPtr("stale"),
	}

	entry, err := RecordTransition(task, Transition{
		Action:       model.ActionInitialAssignment,
		NewPrimaryID: model.StringPtr("A"),
		NewBackupID:  model.StringPtr("B"),
		PerformedBy:  "officer",
	})
	require.NoError(t, err)

	assert.Nil(t, entry.PreviousPrimaryID)
	assert.Nil(t, entry.PreviousBackupID)
	assert.Equal(t, "A", model.StringValue(entry.NewPrimaryID))
	assert.Equal(t, "B", model.StringValue(entry.NewBackupID))
}

func TestRecordTransition_PostponementKeepsPersonnel(t *testing.T) {
	task := model.SensitiveTask{
		ID:                "task-1",
		AssignedPrimaryID: model.StringPtr("A"),
		AssignedBackupID:  model.StringPtr("B"),
	}

	entry, err := RecordTransition(task, Transition{
		Action:       model.ActionPostponement,
		NewPrimaryID: model.StringPtr("ignored"),
		Notes:        PostponementNotes(10, "audit in progress"),
	})
	require.NoError(t, err)

	assert.Equal(t, "A", model.StringValue(entry.PreviousPrimaryID))
	assert.Equal(t, "A", model.StringValue(entry.NewPrimaryID))
	assert.Equal(t, "B", model.StringValue(entry.PreviousBackupID))
	assert.Equal(t, "B", model.StringValue(entry.NewBackupID))
}

func TestRecordTransition_RotationIntoSameSeatIsRecorded(t *testing.T) {
	task := model.SensitiveTask{ID: "task-1", AssignedPrimaryID: model.StringPtr("A")}

	entry, err := RecordTransition(task, Transition{
		Action:       model.ActionRotation,
		NewPrimaryID: model.StringPtr("A"),
	})
	require.NoError(t, err)
	assert.Equal(t, entry.PreviousPrimaryID, entry.NewPrimaryID)
}

func TestRecordTransition_UnsupportedAction(t *testing.T) {
	_, err := RecordTransition(model.SensitiveTask{ID: "task-1"}, Transition{Action: "delete"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedAction))
}

func TestRecordTransition_DoesNotAliasTask(t *testing.T) {
	task := model.SensitiveTask{ID: "task-1", AssignedPrimaryID: model.StringPtr("A")}

	entry, err := RecordTransition(task, Transition{Action: model.ActionRotation, NewPrimaryID: model.StringPtr("C")})
	require.NoError(t, err)

	*task.AssignedPrimaryID = "mutated"
	assert.Equal(t, "A", model.StringValue(entry.PreviousPrimaryID))
}

func TestPostponementNotes(t *testing.T) {
	assert.Equal(t, "30 gün ertelendi. Gerekçe: ongoing audit", PostponementNotes(30, "ongoing audit"))
}

func TestPostpone(t *testing.T) {
	next := date(2025, 6, 1)
	task := model.SensitiveTask{
		ID:                "task-1",
		RotationPeriod:    model.PeriodAnnual,
		AssignedPrimaryID: model.StringPtr("A"),
		AssignedBackupID:  model.StringPtr("B"),
		NextRotationDate:  &next,
	}
	now := time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)

	updated, entry, err := Postpone(task, 30, "Denetim süreci devam ediyor", "officer", now)
	require.NoError(t, err)

	require.NotNil(t, updated.NextRotationDate)
	assert.Equal(t, date(2025, 7, 1), *updated.NextRotationDate)
	assert.Equal(t, task.AssignedPrimaryID, updated.AssignedPrimaryID)
	assert.Nil(t, updated.LastRotationDate)

	assert.Equal(t, model.ActionPostponement, entry.ActionType)
	assert.Contains(t, entry.Notes, "30")
	assert.Contains(t, entry.Notes, "Denetim süreci devam ediyor")
	assert.Equal(t, now, entry.ActionDate)
	assert.Equal(t, next, *entry.PreviousRotationDate)
	assert.Equal(t, date(2025, 7, 1), *entry.NewRotationDate)

	// Input task untouched
	assert.Equal(t, date(2025, 6, 1), *task.NextRotationDate)
}

func TestPostponedDate_WithoutNextDateStartsToday(t *testing.T) {
	now := time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, date(2025, 5, 27), PostponedDate(model.SensitiveTask{}, 7, now))
}

func TestAssign(t *testing.T) {
	task := model.SensitiveTask{ID: "task-1", RotationPeriod: model.PeriodQuarterly}
	now := time.Date(2025, 1, 10, 11, 0, 0, 0, time.UTC)

	updated, entry, err := Assign(task, model.StringPtr("A"), model.StringPtr("B"), "officer", now)
	require.NoError(t, err)

	assert.Equal(t, "A", model.StringValue(updated.AssignedPrimaryID))
	assert.Equal(t, "B", model.StringValue(updated.AssignedBackupID))
	assert.Equal(t, date(2025, 1, 10), *updated.LastRotationDate)
	assert.Equal(t, date(2025, 4, 10), *updated.NextRotationDate)

	assert.Equal(t, model.ActionInitialAssignment, entry.ActionType)
	assert.Nil(t, entry.PreviousPrimaryID)
	assert.Nil(t, entry.PreviousRotationDate)
	assert.Equal(t, date(2025, 4, 10), *entry.NewRotationDate)
}

func TestAssign_UnsupportedPeriod(t *testing.T) {
	task := model.SensitiveTask{ID: "task-1", RotationPeriod: "weekly"}

	_, _, err := Assign(task, model.StringPtr("A"), nil, "officer", time.Now())
	assert.True(t, errors.Is(err, ErrUnsupportedPeriod))
}

func TestRotate(t *testing.T) {
	last := date(2024, 6, 1)
	next := date(2025, 6, 1)
	task := model.SensitiveTask{
		ID:                "task-1",
		RotationPeriod:    model.PeriodAnnual,
		AssignedPrimaryID: model.StringPtr("A"),
		AssignedBackupID:  model.StringPtr("B"),
		LastRotationDate:  &last,
		NextRotationDate:  &next,
	}
	now := time.Date(2025, 5, 28, 8, 0, 0, 0, time.UTC)

	updated, entry, err := Rotate(task, model.StringPtr("C"), nil, "scheduled rotation", "officer", now)
	require.NoError(t, err)

	assert.Equal(t, "C", model.StringValue(updated.AssignedPrimaryID))
	assert.Nil(t, updated.AssignedBackupID)
	assert.Equal(t, date(2025, 5, 28), *updated.LastRotationDate)
	assert.Equal(t, date(2026, 5, 28), *updated.NextRotationDate)

	assert.Equal(t, model.ActionRotation, entry.ActionType)
	assert.Equal(t, "A", model.StringValue(entry.PreviousPrimaryID))
	assert.Equal(t, "C", model.StringValue(entry.NewPrimaryID))
	assert.Equal(t, "B", model.StringValue(entry.PreviousBackupID))
	assert.Nil(t, entry.NewBackupID)
	assert.Equal(t, "scheduled rotation", entry.Notes)
}
