package rotation

import (
	"math"
	"time"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// DefaultDueSoonDays is the window in which a rotation counts as due
const DefaultDueSoonDays = 15

// Classifier derives task statuses using a configurable due-soon window
type Classifier struct {
	DueSoonDays int
}

// NewClassifier returns a Classifier, falling back to DefaultDueSoonDays for non-positive windows
func NewClassifier(dueSoonDays int) Classifier {
	if dueSoonDays <= 0 {
		dueSoonDays = DefaultDueSoonDays
	}
	return Classifier{DueSoonDays: dueSoonDays}
}

// Classify labels a task with the default due-soon window
func Classify(task model.SensitiveTask, now time.Time) model.TaskStatus {
	return NewClassifier(DefaultDueSoonDays).Classify(task, now)
}

// Classify labels a task. The first matching rule wins:
// no primary assignee, no due date, overdue, due within the window, normal.
func (c Classifier) Classify(task model.SensitiveTask, now time.Time) model.TaskStatus {
	if !task.HasPrimary() {
		return model.StatusAwaitingAssignment
	}
	if task.NextRotationDate == nil {
		return model.StatusNormal
	}

	days := DaysUntilDue(*task.NextRotationDate, now)
	switch {
	case days < 0:
		return model.StatusRotationOverdue
	case days <= c.DueSoonDays:
		return model.StatusRotationDue
	default:
		return model.StatusNormal
	}
}

// DaysUntilDue returns floor((due - now) / 24h)
func DaysUntilDue(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}
