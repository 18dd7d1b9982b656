// Command storectl runs maintenance tasks against the store database.
package main

import (
	"fmt"
	"os"

	"ecommerce-platform/internal/cache"
	"ecommerce-platform/internal/config"
	"ecommerce-platform/internal/database"
	"ecommerce-platform/internal/logger"
	"ecommerce-platform/internal/repository"
	"ecommerce-platform/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
	db  database.Service
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Maintenance tasks for the store database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.AddCommand(newMigrateCmd(a), newTreeCmd(a))
	return root
}

func (a *app) open() error {
	a.cfg = config.Load()

	log, err := logger.New(a.cfg.Server.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log

	db, err := database.New(a.cfg.Database)
	if err != nil {
		return err
	}
	a.db = db
	return nil
}

func (a *app) close() error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func newMigrateCmd(a *app) *cobra.Command {
	var dir string

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}
	migrate.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")

	migrationsDir := func() string {
		if dir != "" {
			return dir
		}
		return a.cfg.Database.MigrationsDir
	}

	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.RunMigrations(a.db.DB(), migrationsDir(), a.log)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.GetMigrationStatus(a.db.DB(), migrationsDir())
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.RollbackMigration(a.db.DB(), migrationsDir(), a.log)
			},
		},
	)

	return migrate
}

func newTreeCmd(a *app) *cobra.Command {
	tree := &cobra.Command{
		Use:   "tree",
		Short: "Category tree maintenance",
	}

	tree.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Recompute the nested-set bounds of every category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := service.NewCategoryService(
				repository.NewCategoryRepository(a.db.DB()),
				cache.NewMemoryCache(a.cfg.Cache.RootNameTTL),
				a.cfg.Catalog.AdminPageSize,
				a.log,
			)
			n, err := categories.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %d categories\n", n)
			return nil
		},
	})

	return tree
}
