package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/rotation-control/pkg/core/services"
)

func defaultPerformer() string {
	return os.Getenv("USER")
}

// AssignTaskCmd creates the assignTask command
func AssignTaskCmd(app *AppContext) *cobra.Command {
	var performedBy, key string

	cmd := &cobra.Command{
		Use:   "assignTask <taskID> <primaryID> [backupID]",
		Short: "Make the initial assignment for a task awaiting assignment",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := services.AssignCommand{
				TaskID:         args[0],
				PrimaryID:      args[1],
				PerformedBy:    performedBy,
				IdempotencyKey: key,
			}
			if len(args) == 3 {
				command.BackupID = args[2]
			}

			result, err := services.AssignTask(app.Ctx, app.Database, command, app.Settings, app.Logger, app.now())
			if err != nil {
				return err
			}

			renderTransition(app.out(), "assigned", result)
			return nil
		},
	}

	cmd.Flags().StringVar(&performedBy, "by", defaultPerformer(), "Who is performing the action")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key (generated when empty)")

	return cmd
}

// RotateTaskCmd creates the rotateTask command
func RotateTaskCmd(app *AppContext) *cobra.Command {
	var performedBy, key, notes string

	cmd := &cobra.Command{
		Use:   "rotateTask <taskID> <newPrimaryID> [newBackupID]",
		Short: "Rotate an assigned task to a new primary",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := services.RotateCommand{
				TaskID:         args[0],
				NewPrimaryID:   args[1],
				Notes:          notes,
				PerformedBy:    performedBy,
				IdempotencyKey: key,
			}
			if len(args) == 3 {
				command.NewBackupID = args[2]
			}

			result, err := services.RotateTask(app.Ctx, app.Database, command, app.Settings, app.Logger, app.now())
			if err != nil {
				return err
			}

			renderTransition(app.out(), "rotated", result)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes to record with the rotation")
	cmd.Flags().StringVar(&performedBy, "by", defaultPerformer(), "Who is performing the action")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key (generated when empty)")

	return cmd
}

// PostponeTaskCmd creates the postponeTask command
func PostponeTaskCmd(app *AppContext) *cobra.Command {
	var performedBy, key string

	cmd := &cobra.Command{
		Use:   "postponeTask <taskID> <days> <reason...>",
		Short: "Push back the next rotation date of an assigned task",
		Long: `Push back the next rotation date of an assigned task by a number of days.

The reason is everything after the day count, so quoting is optional:

  postponeTask task-1 30 year end audit in progress`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("days must be a whole number, got %q", args[1])
			}

			command := services.PostponeCommand{
				TaskID:         args[0],
				Days:           days,
				Reason:         strings.Join(args[2:], " "),
				PerformedBy:    performedBy,
				IdempotencyKey: key,
			}

			result, err := services.PostponeTask(app.Ctx, app.Database, command, app.Settings, app.Logger, app.now())
			if err != nil {
				return err
			}

			renderTransition(app.out(), "postponed", result)
			return nil
		},
	}

	cmd.Flags().StringVar(&performedBy, "by", defaultPerformer(), "Who is performing the action")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key (generated when empty)")

	return cmd
}
