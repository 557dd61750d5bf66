// Package main provides the scan CLI.
// Commands: run, runs, verify, migrate.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"options-income-lab/internal/config"
)

var (
	cfgFile  string
	logLevel string
	envFile  string

	cfg    *config.Config
	logger *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scan",
		Short: "Options income opportunity scanner",
		Long: `Scans option chains for cash-secured puts, covered calls and wheel entries,
ranks them by return and adjusted probability, and writes CSV and Markdown reports.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides config")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before config")

	rootCmd.AddCommand(newRunCmd(), newRunsCmd(), newVerifyCmd(), newMigrateCmd())

	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// setup loads .env, configuration and the logger for every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger = logrus.New()
	logger.SetOutput(os.Stderr)
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return nil
}
