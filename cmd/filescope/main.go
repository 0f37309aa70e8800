// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// filescope builds call graphs for single source files: what does this
// file's code actually call, and where does that code live.
//
// Usage:
//
//	filescope analyze src/main.ts --workspace .
//	filescope serve --addr :8630
//	filescope watch src/main.ts --workspace .
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/filescope/pkg/logging"
	"github.com/AleutianAI/filescope/services/scope/config"
)

// version is stamped at build time with -ldflags.
var version = "dev"

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagLogDir    string

	cfg    config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "filescope",
	Short:         "Cross-file call graph analysis for JavaScript and TypeScript",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
		return nil
	},
}

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "directory for JSON log files (disabled when empty)")
}

func setupLogging() error {
	level, err := logging.ParseLevel(flagLogLevel)
	if err != nil {
		return err
	}

	logger, err = logging.New(logging.Config{
		Level:   level,
		LogDir:  flagLogDir,
		Service: "filescope",
		JSON:    flagLogFormat == "json",
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger.Slog())
	return nil
}
