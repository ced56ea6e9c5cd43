package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/FordLabs/PeopleMover/internal/app/seed"
	"github.com/FordLabs/PeopleMover/internal/repository/postgres"
	"github.com/FordLabs/PeopleMover/internal/service/assignment"
)

func newSeedCmd() *cobra.Command {
	var (
		file  string
		reset bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixture spaces into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fx, err := loadFixture(file)
			if err != nil {
				return err
			}
			cfg, log, err := loadDB()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := postgres.New(pool)
			assignments := assignment.New(repo, repo, repo, nil, log)
			return seed.New(repo, assignments, log).Apply(ctx, fx, reset)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML fixture to load (default: the built-in Flipping Sweet space)")
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop and recreate spaces that already exist")
	return cmd
}

func loadFixture(file string) (seed.Fixture, error) {
	if file == "" {
		return seed.Default()
	}
	return seed.LoadFile(file)
}
