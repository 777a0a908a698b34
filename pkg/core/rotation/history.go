package rotation

import (
	"errors"
	"fmt"
	"time"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// ErrUnsupportedAction is returned when a transition names an unknown action type
var ErrUnsupportedAction = errors.New("unsupported action type")

// Transition describes one requested change to a sensitive task
type Transition struct {
	Action          model.ActionType
	NewPrimaryID    *string
	NewBackupID     *string
	Notes           string
	PerformedBy     string
	ActionDate      time.Time
	NewRotationDate *time.Time
}

// RecordTransition builds the audit entry for a transition applied to task.
// The entry's ID and IdempotencyKey are left for the caller to fill in.
//
// Initial assignments have no previous personnel. Postponements keep the
// current personnel regardless of what the transition carries. Rotations do
// not check that the new primary differs from the current one.
func RecordTransition(task model.SensitiveTask, tr Transition) (model.RotationHistoryEntry, error) {
	entry := model.RotationHistoryEntry{
		TaskID:               task.ID,
		ActionType:           tr.Action,
		ActionDate:           tr.ActionDate,
		PerformedBy:          tr.PerformedBy,
		Notes:                tr.Notes,
		PreviousRotationDate: copyTime(task.NextRotationDate),
		NewRotationDate:      copyTime(tr.NewRotationDate),
	}

	switch tr.Action {
	case model.ActionInitialAssignment:
		entry.NewPrimaryID = copyString(tr.NewPrimaryID)
		entry.NewBackupID = copyString(tr.NewBackupID)
	case model.ActionRotation:
		entry.PreviousPrimaryID = copyString(task.AssignedPrimaryID)
		entry.PreviousBackupID = copyString(task.AssignedBackupID)
		entry.NewPrimaryID = copyString(tr.NewPrimaryID)
		entry.NewBackupID = copyString(tr.NewBackupID)
	case model.ActionPostponement:
		entry.PreviousPrimaryID = copyString(task.AssignedPrimaryID)
		entry.PreviousBackupID = copyString(task.AssignedBackupID)
		entry.NewPrimaryID = copyString(task.AssignedPrimaryID)
		entry.NewBackupID = copyString(task.AssignedBackupID)
	default:
		return model.RotationHistoryEntry{}, fmt.Errorf("%w: %q", ErrUnsupportedAction, tr.Action)
	}

	return entry, nil
}

// PostponementNotes renders the duration and reason of a postponement as stored in the audit log
func PostponementNotes(days int, reason string) string {
	return fmt.Sprintf("%d gün ertelendi. Gerekçe: %s", days, reason)
}

// PostponedDate shifts the task's next rotation date by days.
// A task without a next date is postponed from today.
func PostponedDate(task model.SensitiveTask, days int, now time.Time) time.Time {
	from := DateOnly(now)
	if task.NextRotationDate != nil {
		from = *task.NextRotationDate
	}
	return from.AddDate(0, 0, days)
}

// Assign gives an unassigned task its first personnel and starts its rotation clock at now
func Assign(task model.SensitiveTask, primaryID, backupID *string, performedBy string, now time.Time) (model.SensitiveTask, model.RotationHistoryEntry, error) {
	start := DateOnly(now)
	next, err := NextRotationDate(task.RotationPeriod, start)
	if err != nil {
		return model.SensitiveTask{}, model.RotationHistoryEntry{}, err
	}

	entry, err := RecordTransition(task, Transition{
		Action:          model.ActionInitialAssignment,
		NewPrimaryID:    primaryID,
		NewBackupID:     backupID,
		PerformedBy:     performedBy,
		ActionDate:      now,
		NewRotationDate: &next,
	})
	if err != nil {
		return model.SensitiveTask{}, model.RotationHistoryEntry{}, err
	}

	updated := task
	updated.AssignedPrimaryID = copyString(primaryID)
	updated.AssignedBackupID = copyString(backupID)
	updated.LastRotationDate = &start
	updated.NextRotationDate = &next

	return updated, entry, nil
}

// Rotate hands the task to new personnel and restarts its rotation clock at now
func Rotate(task model.SensitiveTask, newPrimaryID, newBackupID *string, notes, performedBy string, now time.Time) (model.SensitiveTask, model.RotationHistoryEntry, error) {
	start := DateOnly(now)
	next, err := NextRotationDate(task.RotationPeriod, start)
	if err != nil {
		return model.SensitiveTask{}, model.RotationHistoryEntry{}, err
	}

	entry, err := RecordTransition(task, Transition{
		Action:          model.ActionRotation,
		NewPrimaryID:    newPrimaryID,
		NewBackupID:     newBackupID,
		Notes:           notes,
		PerformedBy:     performedBy,
		ActionDate:      now,
		NewRotationDate: &next,
	})
	if err != nil {
		return model.SensitiveTask{}, model.RotationHistoryEntry{}, err
	}

	updated := task
	updated.AssignedPrimaryID = copyString(newPrimaryID)
	updated.AssignedBackupID = copyString(newBackupID)
	updated.LastRotationDate = &start
	updated.NextRotationDate = &next

	return updated, entry, nil
}

// Postpone defers the task's next rotation by days without changing personnel
func Postpone(task model.SensitiveTask, days int, reason, performedBy string, now time.Time) (model.SensitiveTask, model.RotationHistoryEntry, error) {
	next := PostponedDate(task, days, now)

	entry, err := RecordTransition(task, Transition{
		Action:          model.ActionPostponement,
		Notes:           PostponementNotes(days, reason),
		PerformedBy:     performedBy,
		ActionDate:      now,
		NewRotationDate: &next,
	})
	if err != nil {
		return model.SensitiveTask{}, model.RotationHistoryEntry{}, err
	}

	updated := task
	updated.NextRotationDate = &next

	return updated, entry, nil
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
