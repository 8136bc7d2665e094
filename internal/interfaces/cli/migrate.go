package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/ClauseLens/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

func newMigrateCommand() *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply, roll back and inspect schema migrations against the configured
PostgreSQL database. Connection settings come from the config file or
CLAUSELENS_DATABASE_* environment variables.`,
	}

	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "directory containing migration files")

	cmd.AddCommand(
		newMigrateUpCommand(&migrationsPath),
		newMigrateDownCommand(&migrationsPath),
		newMigrateStatusCommand(&migrationsPath),
		newMigrateForceCommand(&migrationsPath),
	)
	return cmd
}

func newMigrateUpCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(ctx context.Context, db *postgres.DB) error {
				if err := db.Migrate(*path); err != nil {
					return err
				}
				PrintSuccess(cmd, "migrations applied")
				return nil
			})
		},
	}
}

func newMigrateDownCommand(path *string) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(ctx context.Context, db *postgres.DB) error {
				if err := db.MigrateDown(*path, steps); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func newMigrateStatusCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(ctx context.Context, db *postgres.DB) error {
				version, dirty, err := db.MigrationVersion(*path)
				if err != nil {
					return err
				}
				return PrintResult(cmd, &migrationStatusOutput{Version: version, Dirty: dirty})
			})
		},
	}
}

func newMigrateForceCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Overwrite the recorded schema version",
		Long: `Overwrite the recorded schema version without running migrations. Use
this to clear a dirty flag after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.NewValidation("version must be an integer, got %q", args[0])
			}
			return withDatabase(cmd, func(ctx context.Context, db *postgres.DB) error {
				if err := db.ForceMigrationVersion(*path, version); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("schema version forced to %d", version))
				return nil
			})
		},
	}
}

// withDatabase connects to the configured database, runs fn and closes the
// connection afterwards.
func withDatabase(cmd *cobra.Command, fn func(ctx context.Context, db *postgres.DB) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	db, err := postgres.Connect(ctx, cliCtx.Config.Database, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, db)
}

// migrationStatusOutput reports the schema version for PrintResult.
type migrationStatusOutput struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (o *migrationStatusOutput) TableHeaders() []string {
	return []string{"VERSION", "DIRTY"}
}

func (o *migrationStatusOutput) TableRows() [][]string {
	return [][]string{{strconv.FormatUint(uint64(o.Version), 10), strconv.FormatBool(o.Dirty)}}
}

func (o *migrationStatusOutput) String() string {
	if o.Version == 0 {
		return "No migrations applied yet.\n"
	}
	s := fmt.Sprintf("Schema version: %d\n", o.Version)
	if o.Dirty {
		s += "State:          dirty (last migration failed; repair and run \"migrate force\")\n"
	} else {
		s += "State:          clean\n"
	}
	return s
}
