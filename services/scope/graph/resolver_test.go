// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/filescope/services/scope/ast"
	"github.com/AleutianAI/filescope/services/scope/closure"
)

// buildIndex parses the given sources and returns the index plus the
// backing in-memory file system, with files indexed in the given order.
func buildIndex(t *testing.T, order []string, sources map[string]string) (*Index, closure.MapFS) {
	t.Helper()
	registry, err := ast.NewDefaultRegistry()
	require.NoError(t, err)

	fsys := closure.MapFS{}
	results := make(map[string]*ast.ParseResult, len(sources))
	for file, src := range sources {
		fsys[file] = []byte(src)
		parser, err := registry.ForFile(file)
		require.NoError(t, err)
		result, err := parser.Parse(context.Background(), file, []byte(src))
		require.NoError(t, err)
		results[file] = result
	}
	return NewIndex(order, results), fsys
}

func declByID(t *testing.T, idx *Index, id string) *ast.Declaration {
	t.Helper()
	decl := idx.Declaration(id)
	require.NotNil(t, decl, "declaration %s not indexed", id)
	return decl
}

func TestResolver_SameFileWinsOverImport(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js", "src/b.js"}, map[string]string{
		"src/a.js": `
			import { helper } from './b';
			function helper() {}
			function run() { helper(); }`,
		"src/b.js": `export function helper() {}`,
	})
	r := NewResolver(idx, fsys, nil)

	run := declByID(t, idx, "function:src/a.js:run")
	id, ok := r.Resolve(run.Calls[0], run)
	require.True(t, ok)
	assert.Equal(t, "function:src/a.js:helper", id,
		"a same-file declaration outranks the import table")
}

func TestResolver_ImportTableWinsOverScan(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js", "src/first.js", "src/b.js"}, map[string]string{
		"src/a.js": `
			import { helper } from './b';
			function run() { helper(); }`,
		"src/first.js": `export function helper() {}`,
		"src/b.js":     `export function helper() {}`,
	})
	r := NewResolver(idx, fsys, nil)

	run := declByID(t, idx, "function:src/a.js:run")
	id, ok := r.Resolve(run.Calls[0], run)
	require.True(t, ok)
	assert.Equal(t, "function:src/b.js:helper", id,
		"the imported declaration outranks an earlier file in scan order")
}

func TestResolver_ExhaustiveScanPicksFirstInFileOrder(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js", "src/x.js", "src/y.js"}, map[string]string{
		"src/a.js": `function run() { shared(); }`,
		"src/x.js": `export function shared() {}`,
		"src/y.js": `export function shared() {}`,
	})
	r := NewResolver(idx, fsys, nil)

	run := declByID(t, idx, "function:src/a.js:run")
	id, ok := r.Resolve(run.Calls[0], run)
	require.True(t, ok)
	assert.Equal(t, "function:src/x.js:shared", id,
		"the scan takes the first declaration in file iteration order")
}

func TestResolver_UnknownProducesSentinel(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `function run() { nowhere(); }`,
	})
	r := NewResolver(idx, fsys, nil)

	run := declByID(t, idx, "function:src/a.js:run")
	id, ok := r.Resolve(run.Calls[0], run)
	require.True(t, ok)
	assert.Equal(t, "function:unknown:nowhere", id)
	assert.True(t, IsSentinel(id))
}

func TestResolver_MethodViaTypeBinding(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.ts", "src/server.ts"}, map[string]string{
		"src/a.ts": `
			import { Server } from './server';
			const srv: Server = makeServer();
			function run() { srv.listen(); }`,
		"src/server.ts": `
			export class Server {
				listen() {}
			}`,
	})
	r := NewResolver(idx, fsys, nil)

	run := declByID(t, idx, "function:src/a.ts:run")
	id, ok := r.Resolve(run.Calls[0], run)
	require.True(t, ok)
	assert.Equal(t, "function:src/server.ts:Server.listen", id)
}

func TestResolver_MethodViaNewHeuristic(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `
			class Worker {
				start() {}
			}
			function run() {
				const w = new Worker();
				w.start();
			}`,
	})
	r := NewResolver(idx, fsys, nil)

	run := declByID(t, idx, "function:src/a.js:run")
	var methodCall ast.CallSite
	for _, c := range run.Calls {
		if c.IsMethod {
			methodCall = c
		}
	}
	require.NotEmpty(t, methodCall.Target)

	id, ok := r.Resolve(methodCall, run)
	require.True(t, ok)
	assert.Equal(t, "function:src/a.js:Worker.start", id,
		"a new-expression assignment infers the receiver's class")
}

func TestResolver_ThisReceiver(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `
			class Server {
				listen() { this.setup(); }
				setup() {}
			}`,
	})
	r := NewResolver(idx, fsys, nil)

	listen := declByID(t, idx, "function:src/a.js:Server.listen")
	id, ok := r.Resolve(listen.Calls[0], listen)
	require.True(t, ok)
	assert.Equal(t, "function:src/a.js:Server.setup", id)
}

func TestResolver_InheritedMethod(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `
			class Base {
				shutdown() {}
			}
			class Server extends Base {
				listen() { this.shutdown(); }
			}`,
	})
	r := NewResolver(idx, fsys, nil)

	listen := declByID(t, idx, "function:src/a.js:Server.listen")
	id, ok := r.Resolve(listen.Calls[0], listen)
	require.True(t, ok)
	assert.Equal(t, "function:src/a.js:Base.shutdown", id,
		"method lookup walks the extends chain")
}

func TestResolver_CyclicExtendsChainTerminates(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `
			class A extends B {
				run() { this.ghost(); }
			}
			class B extends A {}`,
	})
	r := NewResolver(idx, fsys, nil)

	run := declByID(t, idx, "function:src/a.js:A.run")

	done := make(chan bool, 1)
	go func() {
		_, ok := r.Resolve(run.Calls[0], run)
		done <- ok
	}()
	select {
	case ok := <-done:
		assert.False(t, ok,
			"a method absent from a cyclic hierarchy contributes no edge")
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not return on a cyclic extends chain")
	}
}

func TestResolver_SelfExtendingClassTerminates(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `
			class A extends A {
				run() { this.ghost(); }
			}`,
	})
	r := NewResolver(idx, fsys, nil)

	run := declByID(t, idx, "function:src/a.js:A.run")
	_, ok := r.Resolve(run.Calls[0], run)
	assert.False(t, ok)
}

func TestResolver_UnresolvableMethodProducesNothing(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `function run(obj) { obj.mystery(); }`,
	})
	r := NewResolver(idx, fsys, nil)

	run := declByID(t, idx, "function:src/a.js:run")
	_, ok := r.Resolve(run.Calls[0], run)
	assert.False(t, ok,
		"a method call with an unknown receiver contributes no edge")
}

func TestCollector_EmptyBodyRegistered(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `function empty() {}`,
	})
	c := NewCollector(idx, NewResolver(idx, fsys, nil), nil)

	callMap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.True(t, callMap.Has("function:src/a.js:empty"),
		"an empty body yields an empty target set, not an absent one")
	assert.Empty(t, callMap.Targets("function:src/a.js:empty"))
}

func TestCollector_ClassesNotRegistered(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `
			class Server {
				listen() {}
			}`,
	})
	c := NewCollector(idx, NewResolver(idx, fsys, nil), nil)

	callMap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.False(t, callMap.Has("class:src/a.js:Server"),
		"only callable declarations enter the call map")
	assert.True(t, callMap.Has("function:src/a.js:Server.listen"))
}

func TestCollector_SkipsGeneratedFiles(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js", "src/types.d.ts"}, map[string]string{
		"src/a.js":       `function run() {}`,
		"src/types.d.ts": `export function phantom(): void;`,
	})
	c := NewCollector(idx, NewResolver(idx, fsys, nil), nil)

	callMap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.True(t, callMap.Has("function:src/a.js:run"))
	assert.False(t, callMap.Has("function:src/types.d.ts:phantom"))
}

func TestCollector_Cancelled(t *testing.T) {
	idx, fsys := buildIndex(t, []string{"src/a.js"}, map[string]string{
		"src/a.js": `function run() {}`,
	})
	c := NewCollector(idx, NewResolver(idx, fsys, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
