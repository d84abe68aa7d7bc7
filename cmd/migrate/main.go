package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"bookreview/internal/config"
	"bookreview/internal/storage"
	"bookreview/migrations"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the book store schema",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Existing environment wins over .env files.
		config.LoadEnvFiles()
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations (mongo: create indexes)",
	Args:  cobra.NoArgs,
	RunE:  runUp,
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration (postgres only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPostgres(cmd.Context(), func(db *sql.DB) error {
			if err := goose.DownContext(cmd.Context(), db, "."); err != nil {
				return fmt.Errorf("roll back migration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations rolled back successfully")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print migration status (postgres only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPostgres(cmd.Context(), func(db *sql.DB) error {
			return goose.StatusContext(cmd.Context(), db, ".")
		})
	},
}

var createCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new SQL migration in MIGRATIONS_DIR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goose.SetSequential(true)
		if err := goose.Create(nil, migrationsDir(), args[0], "sql"); err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migration created: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(upCmd, downCmd, statusCmd, createCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if err := store.Books.EnsureSchema(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s)\n", store.Driver)
	return nil
}

// withPostgres opens the configured postgres store and hands fn a database/sql
// view of its pool with goose pointed at the embedded migrations.
func withPostgres(ctx context.Context, fn func(*sql.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.DriverPostgres {
		return errors.New("this command requires STORE_DRIVER=postgres")
	}

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	db := stdlib.OpenDBFromPool(store.Pool)
	defer db.Close()

	if err := useEmbeddedMigrations(); err != nil {
		return err
	}
	return fn(db)
}

// useEmbeddedMigrations points goose at the migrations compiled into the binary.
func useEmbeddedMigrations() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}
