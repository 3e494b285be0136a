package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/magicontap/tapdash/internal/invites/app"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "invites",
		Short: "Magic On Tap invitation service",
		Long:  "Issues dashboard invitations through Supabase auth and keeps track of them.",
		// No subcommand means serve, that's what the container runs.
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and background workers",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Expire overdue invitations and drop dead outbox rows once",
			RunE:  runSweep,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run:   runVersion,
		},
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadBaseConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	version, err := app.Migrate(cfg)
	if err != nil {
		return err
	}
	logger.Info("database migrations applied",
		slog.String("file", cfg.DatabaseFile),
		slog.Uint64("version", uint64(version)),
	)
	return nil
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadBaseConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	res, err := app.Sweep(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("sweep completed",
		slog.Int64("expired", res.Expired),
		slog.Int64("dead_dispatches", res.DeadDispatches),
	)
	return nil
}

type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func runVersion(cmd *cobra.Command, _ []string) {
	b, _ := json.MarshalIndent(versionInfo{
		Version:   app.BuildVersion,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
