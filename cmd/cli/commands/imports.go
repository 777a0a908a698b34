package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jakechorley/rotation-control/pkg/core/services"
)

// ImportTasksCmd creates the importTasks command
func ImportTasksCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importTasks",
		Short: "Import sensitive workflow steps from the workflow sheet",
		Long: `Create a task awaiting assignment for every workflow step marked sensitive.

Steps that were imported before are left untouched, so the command can be run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.SheetsClient()
			if err != nil {
				return err
			}

			result, err := services.ImportTasks(app.Ctx, app.Database, client, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			w := app.out()
			fmt.Fprintf(w, "\n%s Imported %d tasks (%d already imported, %d not sensitive)\n",
				color.GreenString("✓"), len(result.Imported), result.AlreadyImported, result.NotSensitive)
			for _, task := range result.Imported {
				fmt.Fprintf(w, "  %s  %s (%s)\n", task.ID, task.Title, task.RotationPeriod)
			}
			fmt.Fprintln(w)
			return nil
		},
	}
}

// ImportPersonnelCmd creates the importPersonnel command
func ImportPersonnelCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importPersonnel",
		Short: "Import personnel from the personnel sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.SheetsClient()
			if err != nil {
				return err
			}

			count, err := services.ImportPersonnel(app.Ctx, app.Database, client, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out(), "\n%s Imported %d personnel\n\n", color.GreenString("✓"), count)
			return nil
		},
	}
}

// ListPersonnelCmd creates the listPersonnel command
func ListPersonnelCmd(app *AppContext) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "listPersonnel",
		Short: "List imported personnel",
		RunE: func(cmd *cobra.Command, args []string) error {
			personnel, err := services.ListPersonnel(app.Ctx, app.Database, activeOnly)
			if err != nil {
				return err
			}

			renderPersonnel(app.out(), personnel)
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only show active personnel")

	return cmd
}
