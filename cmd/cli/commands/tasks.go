package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/core/services"
)

// ListTasksCmd creates the listTasks command
func ListTasksCmd(app *AppContext) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "listTasks",
		Short: "List sensitive tasks with their current rotation status",
		Long: `List every sensitive task sorted by next rotation date.

Status is computed at the time of the call:
  awaiting_assignment  no primary assignee
  rotation_overdue     next rotation date has passed
  rotation_due         next rotation date is within the due-soon window
  normal               otherwise

Use --status to show only tasks in one of these states.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *model.TaskStatus
			if status != "" {
				s := model.TaskStatus(status)
				filter = &s
			}

			views, err := services.ListTasks(app.Ctx, app.Database, app.Settings, app.Logger, app.now(), filter)
			if err != nil {
				return err
			}

			renderTasks(app.out(), views)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show tasks with this status")

	return cmd
}

// TaskHistoryCmd creates the taskHistory command
func TaskHistoryCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "taskHistory <taskID>",
		Short: "Show the rotation audit log for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.TaskHistory(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return fmt.Errorf("failed to load history for task %s: %w", args[0], err)
			}

			renderHistory(app.out(), result)
			return nil
		},
	}
}

// ViewAlertsCmd creates the viewAlerts command
func ViewAlertsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewAlerts",
		Short: "Show overdue, due-soon and unstaffed sensitive tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.ViewAlerts(app.Ctx, app.Database, app.Settings, app.Logger, app.now())
			if err != nil {
				return err
			}

			app.Logger.Debug("Alerts computed",
				zap.Int("alerts", len(result.Alerts)),
				zap.Int("tasks", result.TaskCount))

			renderAlerts(app.out(), result)
			return nil
		},
	}
}
