package admin

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/notesqa/internal/database"
)

const defaultMigrationsDir = "migrations"

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Apply all pending up migrations. Use the down subcommand to roll back.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("migrations")
			return runMigrations(cfg.DatabaseURL, dir)
		},
	}

	cmd.PersistentFlags().String("migrations", defaultMigrationsDir, "Directory holding SQL migrations")
	cmd.AddCommand(migrateDownCmd())
	cmd.AddCommand(migrateVersionCmd())

	return cmd
}

func migrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default: one step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			m, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Down(steps); err != nil {
				return err
			}
			log.Printf("migrations: rolled back %d step(s)", steps)
			return nil
		},
	}
}

func migrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			version, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", version)
			return nil
		},
	}
}

func openMigrator(cmd *cobra.Command) (*database.Migrator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir, _ := cmd.Flags().GetString("migrations")
	return database.NewMigrator(cfg.DatabaseURL, dir)
}

func runMigrations(databaseURL, dir string) error {
	if dir == "" {
		dir = defaultMigrationsDir
	}

	m, err := database.NewMigrator(databaseURL, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	version, changed, err := m.Up()
	if err != nil {
		return err
	}

	switch {
	case version == 0:
		log.Println("migrations: database is up to date (no migrations applied)")
	case changed:
		log.Printf("migrations: applied successfully (version %d)", version)
	default:
		log.Printf("migrations: database is up to date (version %d)", version)
	}
	return nil
}
