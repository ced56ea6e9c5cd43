package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FordLabs/PeopleMover/internal/app/migrate"
)

func newMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Migrations directory (default: migrations built into the binary)")

	open := func() (*migrate.Runner, error) {
		cfg, log, err := loadDB()
		if err != nil {
			return nil, err
		}
		if dir == "" {
			dir = cfg.MigrationsDir
		}
		source, err := migrate.Source(dir)
		if err != nil {
			return nil, err
		}
		return migrate.New(cfg.DatabaseURL, source, log)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := open()
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Up(commandContext(cmd))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they have been applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := open()
			if err != nil {
				return err
			}
			defer runner.Close()
			migrations, err := runner.Status(commandContext(cmd))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), migrations)
		},
	})

	var target int64
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or down to --target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if target < 0 {
				return fmt.Errorf("--target must not be negative")
			}
			runner, err := open()
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Down(commandContext(cmd), target)
		},
	}
	down.Flags().Int64Var(&target, "target", 0, "Version to roll back to (0 rolls back one migration)")
	cmd.AddCommand(down)
	return cmd
}
