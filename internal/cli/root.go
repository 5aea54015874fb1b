// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package cli implements mediarec-build, the offline command that turns raw
// catalog and rating tables into the artifacts the server loads.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/mediarec/internal/config"
	"github.com/tomtom215/mediarec/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mediarec-build",
	Short: "Build recommendation artifacts from raw catalog and rating tables",
	Long: `mediarec-build reads the catalog and rating tables of each medium,
computes the item index, interaction matrix, neighbor graphs, embeddings and
encoders, and writes them with a manifest below the artifact directory.

Example usage:
  mediarec-build build                           # All configured media and methods
  mediarec-build build --medium movies -m tfidf  # One variant
  mediarec-build verify --medium books           # Load and check written artifacts`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			if err := os.Setenv(config.ConfigPathEnvVar, cfgFile); err != nil {
				return fmt.Errorf("failed to set %s: %w", config.ConfigPathEnvVar, err)
			}
		}

		var err error
		cfg, err = config.LoadWithKoanf()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			if !logging.ValidLevel(logLevel) {
				return fmt.Errorf("invalid --log-level %q", logLevel)
			}
			level = logLevel
		}
		logging.Init(logging.Config{
			Level:  level,
			Format: logFormat,
			Caller: cfg.Logging.Caller,
			App:    "mediarec-build",
			Output: cmd.ErrOrStderr(),
		})
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (json or console)")
}

// GetConfig returns the configuration loaded by the root command.
func GetConfig() *config.Config {
	return cfg
}
