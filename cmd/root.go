// Package cmd is the budgetly command line: the HTTP server plus maintenance commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nemopss/budgetly/config"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/store"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile string
	cfg     *config.Config
	logger  *logging.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "budgetly",
		Short: "Monthly budgets and spending tracker",
		Long: `budgetly serves the budgeting API: monthly balances, per-category allocations,
transactions and an admin catalog.

Settings come from .env, the environment (BUDGETLY_ prefix optional) and --config.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "yaml config file")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "log format (text, json)")

	root.AddCommand(serveCmd(), migrateCmd(), createAdminCmd(), importOFXCmd(), versionCmd())
	return root
}

// Execute runs the command line until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loaded.LogLevel = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		loaded.LogFormat = format
	}

	l, err := logging.New(logging.Config{
		Level:     loaded.LogLevel,
		Format:    loaded.LogFormat,
		Component: logging.ComponentApp,
		Output:    os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	logging.SetDefault(l)

	cfg, logger = loaded, l
	return nil
}

func openStore() (store.Store, error) {
	st, err := store.Open(store.Options{
		Backend:     cfg.DataBackend,
		PostgresURL: cfg.PostgresURL,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.DataBackend, err)
	}
	logger.WithComponent(logging.ComponentStorage).Info("Store opened", "backend", cfg.DataBackend)
	return st, nil
}
