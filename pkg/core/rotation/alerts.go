package rotation

import (
	"fmt"
	"sort"
	"time"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// Alerts sweeps the tasks and emits one alert per task per condition.
// Conditions are independent, so a single task can raise several alerts.
// The result is ordered by severity, highest first, keeping input order within a severity.
func (c Classifier) Alerts(tasks []model.SensitiveTask, now time.Time) []model.Alert {
	alerts := make([]model.Alert, 0)

	for _, task := range tasks {
		var days *int
		if task.NextRotationDate != nil {
			d := DaysUntilDue(*task.NextRotationDate, now)
			days = &d
		}

		newAlert := func(kind model.AlertKind, severity model.AlertSeverity, message string) model.Alert {
			return model.Alert{
				TaskID:       task.ID,
				TaskTitle:    task.Title,
				Kind:         kind,
				Severity:     severity,
				DaysUntilDue: days,
				Message:      message,
			}
		}

		// Due-date alerts ignore assignment so an unstaffed task can still be overdue
		switch {
		case days == nil:
		case *days < 0:
			alerts = append(alerts, newAlert(model.AlertOverdue, model.SeverityHigh,
				fmt.Sprintf("rotation overdue by %d days", -*days)))
		case *days <= c.DueSoonDays:
			alerts = append(alerts, newAlert(model.AlertDueSoon, model.SeverityMedium,
				fmt.Sprintf("rotation due in %d days", *days)))
		}

		if !task.HasBackup() {
			alerts = append(alerts, newAlert(model.AlertNoBackup, model.SeverityMedium,
				"no backup personnel assigned"))
		}
		if !task.HasPrimary() {
			alerts = append(alerts, newAlert(model.AlertNoAssignment, model.SeverityHigh,
				"no primary personnel assigned"))
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
	})

	return alerts
}

// CountBySeverity tallies alerts per severity
func CountBySeverity(alerts []model.Alert) map[model.AlertSeverity]int {
	counts := make(map[model.AlertSeverity]int)
	for _, a := range alerts {
		counts[a.Severity]++
	}
	return counts
}
