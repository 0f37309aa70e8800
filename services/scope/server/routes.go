// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the analyzer over HTTP for editor integrations
// and the renderer.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/filescope/services/scope/telemetry"
)

// RegisterRoutes mounts the filescope API onto a gin engine.
//
// Routes:
//   - POST /v1/scope/analyze: run an analysis
//   - GET  /v1/scope/languages: supported languages
//   - GET  /healthz: liveness
//   - GET  /metrics: Prometheus metrics (when the exporter is enabled)
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	v1 := r.Group("/v1/scope")
	{
		v1.POST("/analyze", h.Analyze)
		v1.GET("/languages", h.Languages)
	}

	r.GET("/healthz", h.Health)

	if mh := telemetry.MetricsHandler(); mh != nil {
		r.GET("/metrics", gin.WrapH(mh))
	}
}
