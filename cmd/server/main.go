package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/socialchat/internal/app"
	"github.com/vovakirdan/socialchat/internal/config"
	"github.com/vovakirdan/socialchat/internal/log"
)

var (
	configPath        string
	addr              string
	databasePath      string
	logLevel          string
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
)

// rootCmd runs the messaging backend.
var rootCmd = &cobra.Command{
	Use:           "socialchat-server",
	Short:         "Run the socialchat messaging backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	rootCmd.Flags().StringVar(&databasePath, "db", "", "SQLite database path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().DurationVar(&readHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	rootCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
}

func runServer(cmd *cobra.Command, _ []string) error {
	bootLogger := log.New("info")

	cfg, usedPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags win over file and environment.
	cfg.UpdateFrom(config.Config{
		Addr:              addr,
		DatabasePath:      databasePath,
		LogLevel:          logLevel,
		ReadHeaderTimeout: readHeaderTimeout,
		ShutdownTimeout:   shutdownTimeout,
	})

	logger := log.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.Info().Str("config", usedPath).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting socialchat server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
