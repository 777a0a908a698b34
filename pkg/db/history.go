package db

import (
	"fmt"
	"sort"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// SortHistory orders entries oldest first, breaking ties on creation time
func SortHistory(entries []model.RotationHistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ActionDate.Equal(entries[j].ActionDate) {
			return entries[i].ActionDate.Before(entries[j].ActionDate)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

// CheckHistoryIntegrity verifies that a task's audit log forms an unbroken chain
// ending in the task's current personnel. Entries must be sorted oldest first.
// Returns an error describing the first violation found.
func CheckHistoryIntegrity(task model.SensitiveTask, entries []model.RotationHistoryEntry) error {
	if len(entries) == 0 {
		if task.HasPrimary() {
			return fmt.Errorf("data integrity violation: task %s is assigned but has no history", task.ID)
		}
		return nil
	}

	for i, entry := range entries {
		if entry.TaskID != task.ID {
			return fmt.Errorf("data integrity violation: history entry %s belongs to task %s, not %s", entry.ID, entry.TaskID, task.ID)
		}

		if entry.ActionType == model.ActionInitialAssignment {
			if i != 0 {
				return fmt.Errorf("data integrity violation: task %s has an initial assignment at position %d (entry %s)", task.ID, i, entry.ID)
			}
			continue
		}

		if i == 0 {
			return fmt.Errorf("data integrity violation: task %s history starts with %s instead of %s (entry %s)",
				task.ID, entry.ActionType, model.ActionInitialAssignment, entry.ID)
		}

		prev := entries[i-1]
		if model.StringValue(entry.PreviousPrimaryID) != model.StringValue(prev.NewPrimaryID) ||
			model.StringValue(entry.PreviousBackupID) != model.StringValue(prev.NewBackupID) {
			return fmt.Errorf("data integrity violation: task %s entry %s does not continue from entry %s (primary %q -> %q, backup %q -> %q)",
				task.ID, entry.ID, prev.ID,
				model.StringValue(prev.NewPrimaryID), model.StringValue(entry.PreviousPrimaryID),
				model.StringValue(prev.NewBackupID), model.StringValue(entry.PreviousBackupID))
		}
	}

	last := entries[len(entries)-1]
	if model.StringValue(last.NewPrimaryID) != model.StringValue(task.AssignedPrimaryID) ||
		model.StringValue(last.NewBackupID) != model.StringValue(task.AssignedBackupID) {
		return fmt.Errorf("data integrity violation: task %s personnel (primary=%q, backup=%q) do not match its latest history entry %s",
			task.ID, model.StringValue(task.AssignedPrimaryID), model.StringValue(task.AssignedBackupID), last.ID)
	}

	return nil
}
