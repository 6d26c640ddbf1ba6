package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quirxsama/latte-sub000/internal/shared"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if err := r.open(); err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	r.logger.Warn("rolling back last migration", "path", r.config.Database.Path)
	if err := shared.RollbackMigration(r.db); err != nil {
		return err
	}
	return r.writePlain("✓ Rolled back the last migration\n")
}

// SetupStatus lists every known migration and when it was applied.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations: " + r.config.Database.Path)
	for _, s := range states {
		if s.Applied {
			r.writePlain("✓ %03d %-28s %s\n", s.Version, s.Name, s.AppliedAt.Format("2006-01-02 15:04:05"))
		} else {
			r.writePlain("· %03d %-28s pending\n", s.Version, s.Name)
		}
	}
	return nil
}

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Wrote %s\n", path)
	r.writePlain("Set auth.jwt_secret and your Spotify credentials (or use a .env file) before running 'latte serve'.\n")
	return nil
}
