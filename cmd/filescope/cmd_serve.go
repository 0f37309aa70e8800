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
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/filescope/services/scope/server"
	"github.com/AleutianAI/filescope/services/scope/telemetry"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tcfg := cfg.Telemetry
		tcfg.ServiceVersion = version
		shutdown, err := telemetry.Init(ctx, tcfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()

		analyzer, err := newAnalyzer()
		if err != nil {
			return err
		}

		addr := flagAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		srv := server.New(analyzer, addr, version, cfg.Server.ShutdownGrace, slog.Default())
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagWorkspace, "workspace", "", "workspace root for closure admission (optional)")
	rootCmd.AddCommand(serveCmd)
}
