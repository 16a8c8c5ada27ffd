package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/debatecoach/internal/config"
	"github.com/user/debatecoach/internal/logging"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "debatecoach",
	Short:         "Debate and pitch coaching engine",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")
}

// loadConfig loads and validates the config or exits; every subcommand
// that runs the engine needs one.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		fmt.Fprintln(os.Stderr, "Fix it with: debatecoach config set <key> <value>")
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) io.Closer {
	return logging.Setup(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogRotate.MaxSizeMB,
		MaxBackups: cfg.LogRotate.MaxBackups,
		MaxAgeDays: cfg.LogRotate.MaxAgeDays,
	})
}
