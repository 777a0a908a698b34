package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/core/services"
)

func statusColor(status model.TaskStatus) *color.Color {
	switch status {
	case model.StatusRotationOverdue:
		return color.New(color.FgRed, color.Bold)
	case model.StatusRotationDue:
		return color.New(color.FgYellow)
	case model.StatusAwaitingAssignment:
		return color.New(color.FgMagenta)
	}
	return color.New(color.FgGreen)
}

func severityColor(severity model.AlertSeverity) *color.Color {
	if severity == model.SeverityHigh {
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.FgYellow)
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func idOrDash(id *string) string {
	if id == nil || *id == "" {
		return "-"
	}
	return *id
}

// renderTasks prints one line per task with its status coloured
func renderTasks(w io.Writer, views []services.TaskView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return
	}

	titleWidth := len("Title")
	for _, v := range views {
		if len(v.Task.Title) > titleWidth {
			titleWidth = len(v.Task.Title)
		}
	}

	fmt.Fprintf(w, "%-36s  %-*s  %-11s  %-10s  %-10s  %-10s  %s\n",
		"ID", titleWidth, "Title", "Period", "Primary", "Backup", "Next", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 36+titleWidth+70))

	for _, v := range views {
		status := string(v.Status)
		if v.DaysUntilDue != nil && v.Status != model.StatusAwaitingAssignment {
			status = fmt.Sprintf("%s (%dd)", status, *v.DaysUntilDue)
		}
		fmt.Fprintf(w, "%-36s  %-*s  %-11s  %-10s  %-10s  %-10s  %s\n",
			v.Task.ID, titleWidth, v.Task.Title, v.Task.RotationPeriod,
			idOrDash(v.Task.AssignedPrimaryID), idOrDash(v.Task.AssignedBackupID),
			dateOrDash(v.Task.NextRotationDate), statusColor(v.Status).Sprint(status))
	}
}

// renderAlerts prints the alert sweep, high severity first
func renderAlerts(w io.Writer, result *services.AlertsResult) {
	if len(result.Alerts) == 0 {
		fmt.Fprintf(w, "%s No alerts across %d tasks\n", color.GreenString("✓"), result.TaskCount)
		return
	}

	fmt.Fprintf(w, "%d alerts across %d tasks (%s high, %s medium)\n\n",
		len(result.Alerts), result.TaskCount,
		severityColor(model.SeverityHigh).Sprint(result.BySeverity[model.SeverityHigh]),
		severityColor(model.SeverityMedium).Sprint(result.BySeverity[model.SeverityMedium]))

	for _, a := range result.Alerts {
		label := severityColor(a.Severity).Sprintf("%-6s", strings.ToUpper(string(a.Severity)))
		fmt.Fprintf(w, "  %s  %-14s  %s: %s\n", label, a.Kind, a.TaskTitle, a.Message)
	}
}

// renderHistory prints a task's audit log, newest first
func renderHistory(w io.Writer, result *services.TaskHistoryResult) {
	fmt.Fprintf(w, "History for %s (%s)\n\n", result.Task.Title, result.Task.ID)

	if result.IntegrityIssue != "" {
		fmt.Fprintf(w, "%s %s\n\n", color.RedString("!"), result.IntegrityIssue)
	}

	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "No history recorded")
		return
	}

	for _, e := range result.Entries {
		fmt.Fprintf(w, "%s  %-18s  by %s\n", e.ActionDate.Format("2006-01-02 15:04"), e.ActionType, e.PerformedBy)
		switch e.ActionType {
		case model.ActionPostponement:
			fmt.Fprintf(w, "    next rotation %s -> %s\n", dateOrDash(e.PreviousRotationDate), dateOrDash(e.NewRotationDate))
		default:
			fmt.Fprintf(w, "    primary %s -> %s, backup %s -> %s\n",
				idOrDash(e.PreviousPrimaryID), idOrDash(e.NewPrimaryID),
				idOrDash(e.PreviousBackupID), idOrDash(e.NewBackupID))
			fmt.Fprintf(w, "    next rotation %s\n", dateOrDash(e.NewRotationDate))
		}
		if e.Notes != "" {
			fmt.Fprintf(w, "    %s\n", e.Notes)
		}
	}
}

// renderTransition confirms a successful command
func renderTransition(w io.Writer, verb string, result *services.TransitionResult) {
	fmt.Fprintf(w, "\n%s Task %s %s\n\n", color.GreenString("✓"), result.Task.ID, verb)
	fmt.Fprintf(w, "Primary:       %s\n", idOrDash(result.Task.AssignedPrimaryID))
	fmt.Fprintf(w, "Backup:        %s\n", idOrDash(result.Task.AssignedBackupID))
	fmt.Fprintf(w, "Next rotation: %s\n", dateOrDash(result.Task.NextRotationDate))
	fmt.Fprintf(w, "Status:        %s\n", statusColor(result.Status).Sprint(result.Status))
	fmt.Fprintf(w, "History entry: %s (key %s)\n\n", result.Entry.ID, result.Entry.IdempotencyKey)
}

// renderPersonnel prints personnel with inactive staff dimmed
func renderPersonnel(w io.Writer, personnel []model.Personnel) {
	if len(personnel) == 0 {
		fmt.Fprintln(w, "No personnel found")
		return
	}

	dim := color.New(color.Faint)
	for _, p := range personnel {
		line := fmt.Sprintf("%-12s  %-20s  %-28s  %-16s  %s", p.ID, p.DisplayName, p.Email, p.Department, p.Status)
		if p.Status != "" && !strings.EqualFold(p.Status, "active") {
			line = dim.Sprint(line)
		}
		fmt.Fprintln(w, line)
	}
}
