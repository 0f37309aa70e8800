// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/filescope/pkg/validation"
	"github.com/AleutianAI/filescope/services/scope"
)

// AnalyzeRequest is the body of POST /v1/scope/analyze.
type AnalyzeRequest struct {
	// ActiveFile is the path of the file to analyze.
	ActiveFile string `json:"active_file" binding:"required"`

	// Format selects the response payload: "json" (default) or "dot".
	Format string `json:"format,omitempty"`
}

// AnalyzeDOTResponse wraps a DOT rendering of the graph.
type AnalyzeDOTResponse struct {
	ActiveFile string `json:"active_file"`
	DOT        string `json:"dot"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	analyzer *scope.Analyzer
	logger   *slog.Logger
	version  string
}

// NewHandlers creates the handler set.
func NewHandlers(analyzer *scope.Analyzer, version string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		analyzer: analyzer,
		logger:   logger.With("component", "http"),
		version:  version,
	}
}

// Analyze runs an analysis for the requested active file.
//
// Status codes:
//   - 200: analysis complete
//   - 400: malformed request or unsupported file type
//   - 404: active file cannot be read
//   - 499: client cancelled
func (h *Handlers) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}
	if req.Format != "" && req.Format != "json" && req.Format != "dot" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "format must be \"json\" or \"dot\""})
		return
	}
	if err := validation.ValidatePath(req.ActiveFile); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid path: " + err.Error()})
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req.ActiveFile)
	if err != nil {
		switch {
		case errors.Is(err, scope.ErrNoInput):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		case errors.Is(err, scope.ErrUnsupportedFile):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case c.Request.Context().Err() != nil:
			c.Status(499)
		default:
			h.logger.Error("analysis failed", "active_file", req.ActiveFile, "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "analysis failed"})
		}
		return
	}

	if req.Format == "dot" {
		c.JSON(http.StatusOK, AnalyzeDOTResponse{
			ActiveFile: result.ActiveFile,
			DOT:        result.Graph.DOT(),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Languages reports the supported source languages.
func (h *Handlers) Languages(c *gin.Context) {
	langs := h.analyzer.Languages()
	sort.Strings(langs)
	c.JSON(http.StatusOK, gin.H{"languages": langs})
}

// Health is the liveness probe.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}
