package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FordLabs/PeopleMover/pkg/config"
	"github.com/FordLabs/PeopleMover/pkg/logger"
)

var buildVersion = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pmctl",
		Short:        "PeopleMover operations: schema migrations, seed data and reports",
		Version:      buildVersion,
		SilenceUsage: true,
	}
	cmd.AddCommand(newMigrateCmd(), newSeedCmd(), newReportCmd())
	return cmd
}

// loadDB reads the database settings shared with the API server.
func loadDB() (config.APIConfig, *slog.Logger, error) {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		return config.APIConfig{}, nil, err
	}
	return cfg, logger.NewWithWriter(os.Stderr, "pmctl", logger.ParseLevel(cfg.LogLevel)), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
