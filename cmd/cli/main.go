package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jakechorley/rotation-control/cmd/cli/commands"
	"github.com/jakechorley/rotation-control/internal/config"
	"github.com/jakechorley/rotation-control/pkg/core/services"
	"github.com/jakechorley/rotation-control/pkg/db"
	"github.com/jakechorley/rotation-control/pkg/postgres"
	"github.com/jakechorley/rotation-control/pkg/sqlite"
	"github.com/jakechorley/rotation-control/pkg/utils"
	"github.com/jakechorley/rotation-control/pkg/utils/logging"
)

var (
	env string
	app = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Rotation control CLI - Manage sensitive task rotations",
		Long:  `A CLI tool for assigning, rotating and postponing personnel on sensitive tasks, and for reviewing rotation alerts and audit history.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Database != nil {
				app.Database.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.ListTasksCmd(app))
	rootCmd.AddCommand(commands.AssignTaskCmd(app))
	rootCmd.AddCommand(commands.RotateTaskCmd(app))
	rootCmd.AddCommand(commands.PostponeTaskCmd(app))
	rootCmd.AddCommand(commands.TaskHistoryCmd(app))
	rootCmd.AddCommand(commands.ViewAlertsCmd(app))
	rootCmd.AddCommand(commands.SendAlertDigestCmd(app))
	rootCmd.AddCommand(commands.ImportTasksCmd(app))
	rootCmd.AddCommand(commands.ImportPersonnelCmd(app))
	rootCmd.AddCommand(commands.ListPersonnelCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(interactiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database and Google authentication
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Settings = services.SettingsFromConfig(app.Cfg)
	app.Logger.Debug("Configuration loaded successfully",
		zap.Int("due_soon_days", app.Settings.Classifier.DueSoonDays),
		zap.Int("max_postponement_days", app.Settings.MaxPostponementDays))

	app.Database, err = openDatabase(app.Ctx, app.Cfg.Database, app.Logger)
	if err != nil {
		return err
	}
	app.Logger.Info("Database initialized successfully", zap.String("driver", app.Cfg.Database.Driver))

	if !app.Cfg.UsesGoogle() {
		app.Logger.Debug("No Google integration configured")
		return nil
	}

	app.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	scopes := utils.RequiredScopes(app.Cfg)
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg, scopes)
	if err != nil {
		return err
	}

	tokens, err := utils.DefaultTokenStore()
	if err != nil {
		return err
	}

	app.Auth = utils.NewAuthenticator(oauthConfig, scopes, tokens, app.Logger)
	app.Logger.Debug("OAuth configuration loaded successfully", zap.Strings("scopes", scopes))

	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		logger.Info("Connecting to PostgreSQL")
		pg, err := postgres.NewDB(ctx, cfg.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return pg, nil
	case config.DriverSQLite:
		logger.Info("Opening SQLite database", zap.String("path", cfg.URL))
		lite, err := sqlite.NewDB(ctx, cfg.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return lite, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func interactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (authenticate once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands without re-authenticating.
The session will keep running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\nStarting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			rootCmd := cmd.Parent()
			available := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				if subCmd.Name() != "interactive" && subCmd.Name() != "completion" && subCmd.Name() != "help" {
					available[subCmd.Name()] = subCmd
				}
			}

			scanner := bufio.NewScanner(os.Stdin)
			failed := color.New(color.FgRed)

			for {
				fmt.Print("> ")

				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				parts := strings.Fields(line)
				cmdName := parts[0]
				cmdArgs := parts[1:]

				if cmdName == "exit" || cmdName == "quit" {
					fmt.Println("Goodbye!")
					return nil
				}

				if cmdName == "help" {
					printInteractiveHelp(available)
					continue
				}

				targetCmd, exists := available[cmdName]
				if !exists {
					failed.Printf("Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
					flag.Changed = false
					flag.Value.Set(flag.DefValue)
				})

				// RunE is called directly so PersistentPreRunE does not reinitialise the app
				if err := targetCmd.ParseFlags(cmdArgs); err != nil {
					failed.Printf("Error parsing flags: %v\n\n", err)
					continue
				}

				cmdArgs = targetCmd.Flags().Args()

				if targetCmd.Args != nil {
					if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
						failed.Printf("Error: %v\n\n", err)
						continue
					}
				}

				if targetCmd.RunE != nil {
					if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
						failed.Printf("Error: %v\n\n", err)
					}
				} else if targetCmd.Run != nil {
					targetCmd.Run(targetCmd, cmdArgs)
				}
			}

			return scanner.Err()
		},
	}
}

func printInteractiveHelp(available map[string]*cobra.Command) {
	fmt.Println("\nAvailable commands:")

	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := available[name]
		fmt.Printf("  %-50s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Println("\n  help                                               Show this help message")
	fmt.Println("  exit, quit                                         Exit the interactive session")
	fmt.Println()
}
