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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/filescope/services/scope"
	"github.com/AleutianAI/filescope/services/scope/closure"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	fsys := closure.MapFS{
		"src/main.js": []byte(`
			import { helper } from './util';
			function run() { helper(); }`),
		"src/util.js": []byte(`export function helper() { log(); }`),
	}
	analyzer, err := scope.NewAnalyzer(scope.WithFileSystem(fsys))
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	RegisterRoutes(engine, NewHandlers(analyzer, "test", nil))
	return engine
}

func postAnalyze(t *testing.T, engine *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/scope/analyze", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAnalyzeEndpoint_JSON(t *testing.T) {
	engine := newTestEngine(t)
	w := postAnalyze(t, engine, AnalyzeRequest{ActiveFile: "src/main.js"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result scope.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "src/main.js", result.ActiveFile)
	assert.Equal(t, 5, result.Stats.Nodes)
	assert.Equal(t, 4, result.Stats.Edges)
	assert.True(t, result.Graph.HasNode("function:unknown:log"))
}

func TestAnalyzeEndpoint_DOT(t *testing.T) {
	engine := newTestEngine(t)
	w := postAnalyze(t, engine, AnalyzeRequest{ActiveFile: "src/main.js", Format: "dot"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyzeDOTResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.DOT, "digraph filescope")
	assert.Contains(t, resp.DOT, "function:src/util.js:helper")
}

func TestAnalyzeEndpoint_Errors(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("missing file", func(t *testing.T) {
		w := postAnalyze(t, engine, AnalyzeRequest{ActiveFile: "src/gone.js"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("unsupported extension", func(t *testing.T) {
		w := postAnalyze(t, engine, AnalyzeRequest{ActiveFile: "src/main.go"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("missing active_file", func(t *testing.T) {
		w := postAnalyze(t, engine, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("bad format", func(t *testing.T) {
		w := postAnalyze(t, engine, AnalyzeRequest{ActiveFile: "src/main.js", Format: "xml"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("path traversal", func(t *testing.T) {
		w := postAnalyze(t, engine, AnalyzeRequest{ActiveFile: "../outside/secret.js"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthAndLanguages(t *testing.T) {
	engine := newTestEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/scope/languages", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "javascript")
	assert.Contains(t, w.Body.String(), "typescript")
}
