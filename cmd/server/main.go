package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tahakaan/superapp-server/internal/app"
	"github.com/tahakaan/superapp-server/internal/config"
	"github.com/tahakaan/superapp-server/internal/log"
)

func main() {
	var (
		configPath string
		logLevel   string
		addr       string
		dbPath     string
		pretty     bool
	)

	root := &cobra.Command{
		Use:   "superapp-server",
		Short: "SuperApp demo backend: wallet, food, rides, profile, and realtime messaging",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(logLevel, pretty)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.UpdateFrom(config.Config{Addr: addr, DatabasePath: dbPath, LogLevel: logLevel})
			logger = log.New(cfg.LogLevel, pretty)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting superapp server")

			application, err := app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	serve.Flags().StringVar(&configPath, "config", "", "path to config file")
	serve.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	serve.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	serve.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	serve.Flags().BoolVar(&pretty, "pretty", true, "human-readable log output")

	root.AddCommand(serve)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
