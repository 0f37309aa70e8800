// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/filescope/services/scope/closure"
)

func newTestAnalyzer(t *testing.T, fsys closure.FileSystem) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(WithFileSystem(fsys), WithParallelism(2))
	require.NoError(t, err)
	return a
}

func TestAnalyze_EndToEnd(t *testing.T) {
	fsys := closure.MapFS{
		"src/main.js": []byte(`
			import { helper } from './util';
			function run() { helper(); }`),
		"src/util.js": []byte(`export function helper() { log(); }`),
	}
	a := newTestAnalyzer(t, fsys)

	result, err := a.Analyze(context.Background(), "src/main.js")
	require.NoError(t, err)
	require.NotNil(t, result.Graph)
	require.NoError(t, result.Graph.Validate())

	assert.Equal(t, 2, result.ClosureFiles)
	assert.Equal(t, 5, result.Stats.Nodes)
	assert.Equal(t, 4, result.Stats.Edges)
	assert.Equal(t, 1, result.Stats.ExternalNodes)

	assert.True(t, result.Graph.HasNode("function:src/main.js:run"))
	assert.True(t, result.Graph.HasNode("function:src/util.js:helper"))
	assert.True(t, result.Graph.HasNode("function:unknown:log"))
}

func TestAnalyze_NoInput(t *testing.T) {
	a := newTestAnalyzer(t, closure.MapFS{})
	_, err := a.Analyze(context.Background(), "src/missing.js")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestAnalyze_UnsupportedFile(t *testing.T) {
	fsys := closure.MapFS{"doc/readme.md": []byte("# hi")}
	a := newTestAnalyzer(t, fsys)
	_, err := a.Analyze(context.Background(), "doc/readme.md")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestAnalyze_Cancelled(t *testing.T) {
	fsys := closure.MapFS{"src/a.js": []byte(`function a() {}`)}
	a := newTestAnalyzer(t, fsys)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := a.Analyze(ctx, "src/a.js")
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestAnalyze_RepeatedRunsAreIndependent(t *testing.T) {
	fsys := closure.MapFS{
		"src/a.js": []byte(`
			import { b } from './b';
			function a() { b(); }`),
		"src/b.js": []byte(`export function b() { a(); }`),
	}
	a := newTestAnalyzer(t, fsys)

	first, err := a.Analyze(context.Background(), "src/a.js")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), "src/a.js")
	require.NoError(t, err)

	assert.Equal(t, first.Stats.Nodes, second.Stats.Nodes)
	assert.Equal(t, first.Stats.Edges, second.Stats.Edges)

	// Different active file, fresh graph ownership either way.
	other, err := a.Analyze(context.Background(), "src/b.js")
	require.NoError(t, err)
	assert.True(t, other.Graph.HasNode("function:src/b.js:b"))
	assert.NotSame(t, first.Graph, other.Graph)
}

func TestAnalyze_MethodCallAcrossFiles(t *testing.T) {
	fsys := closure.MapFS{
		"src/main.ts": []byte(`
			import { Server } from './server';
			function boot() {
				const s = new Server();
				s.listen();
			}`),
		"src/server.ts": []byte(`
			export class Server {
				listen() { this.setup(); }
				setup() {}
			}`),
	}
	a := newTestAnalyzer(t, fsys)

	result, err := a.Analyze(context.Background(), "src/main.ts")
	require.NoError(t, err)

	triples := make(map[string]bool)
	for _, e := range result.Graph.Edges {
		triples[e.Source+"|"+string(e.Kind)+"|"+e.Target] = true
	}
	assert.True(t, triples["function:src/main.ts:boot|calls|class:src/server.ts:Server"],
		"new Server() resolves to the class")
	assert.True(t, triples["function:src/main.ts:boot|calls|function:src/server.ts:Server.listen"])
	assert.True(t, triples["function:src/server.ts:Server.listen|calls|function:src/server.ts:Server.setup"])
	assert.True(t, triples["class:src/server.ts:Server|contains|function:src/server.ts:Server.listen"])
}
