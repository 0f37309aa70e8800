// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/filescope/services/scope"
)

var (
	flagWorkspace string
	flagFormat    string
	flagOutput    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Build the call graph for one active file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagFormat != "json" && flagFormat != "dot" {
			return fmt.Errorf("unknown format %q (want json or dot)", flagFormat)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		analyzer, err := newAnalyzer()
		if err != nil {
			return err
		}

		result, err := analyzer.Analyze(ctx, args[0])
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			slog.Warn(w)
		}

		out := os.Stdout
		if flagOutput != "" {
			f, err := os.Create(flagOutput)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		if flagFormat == "dot" {
			_, err = fmt.Fprint(out, result.Graph.DOT())
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// newAnalyzer assembles an analyzer from the loaded config plus the
// workspace flag.
func newAnalyzer() (*scope.Analyzer, error) {
	workspace := flagWorkspace
	if workspace == "" {
		workspace = cfg.WorkspaceRoot
	}

	opts := []scope.AnalyzerOption{
		scope.WithMaxDepth(cfg.Analysis.MaxDepth),
		scope.WithExcludes(cfg.Analysis.Excludes),
	}
	if workspace != "" {
		opts = append(opts, scope.WithWorkspaceRoot(workspace))
	}
	if cfg.Analysis.Parallelism > 0 {
		opts = append(opts, scope.WithParallelism(cfg.Analysis.Parallelism))
	}
	return scope.NewAnalyzer(opts...)
}

func init() {
	analyzeCmd.Flags().StringVar(&flagWorkspace, "workspace", "", "workspace root for closure admission (optional)")
	analyzeCmd.Flags().StringVar(&flagFormat, "format", "json", "output format (json, dot)")
	analyzeCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write output to file instead of stdout")
	rootCmd.AddCommand(analyzeCmd)
}
