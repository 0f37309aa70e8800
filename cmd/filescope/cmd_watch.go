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
	"github.com/AleutianAI/filescope/services/scope/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-analyze on every change to the workspace",
	Long: `Watches the workspace and rebuilds the call graph for the given
active file whenever a source file changes. Each result is written to
stdout as a single JSON line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := flagWorkspace
		if root == "" {
			root = cfg.WorkspaceRoot
		}
		if root == "" {
			return fmt.Errorf("watch requires a workspace root (--workspace or config)")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		analyzer, err := newAnalyzer()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		w := watch.New(analyzer, cfg.Watch.Debounce, slog.Default())
		return w.Run(ctx, root, args[0], func(result *scope.Result, err error) {
			if err != nil {
				slog.Error("analysis failed", "error", err)
				return
			}
			if err := enc.Encode(result); err != nil {
				slog.Error("writing result", "error", err)
			}
		})
	},
}

func init() {
	watchCmd.Flags().StringVar(&flagWorkspace, "workspace", "", "workspace root to watch")
	rootCmd.AddCommand(watchCmd)
}
