package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/comment-tree-api/internal/config"
	"github.com/comment-tree-api/internal/database"
	"github.com/comment-tree-api/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	migrationsPath string

	cfg *config.Config
	log zerolog.Logger
	db  *database.DB

	rootCmd = &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the comment service database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log = logger.New(cfg.Log)
			if migrationsPath == "" {
				migrationsPath = cfg.Server.MigrationsPath
			}

			db, err = database.New(&cfg.Database, log)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if db != nil {
				db.Close()
			}
		},
	}

	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.RunMigrations(migrationsPath)
		},
	}

	downCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.MigrateDown(migrationsPath)
		},
	}

	gotoCmd = &cobra.Command{
		Use:   "goto [version]",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return db.MigrateToVersion(migrationsPath, uint(version))
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := db.MigrationVersion(migrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default $MIGRATIONS_PATH or ./migrations)")
	rootCmd.AddCommand(upCmd, downCmd, gotoCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.New(config.LogConfig{})
		log.Error().Err(err).Msg("Migration command failed")
		os.Exit(1)
	}
}
