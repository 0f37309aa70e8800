// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package closure

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/filescope/services/scope/ast"
)

func newTestParser(t *testing.T) *ast.CachingParser {
	t.Helper()
	registry, err := ast.NewDefaultRegistry()
	require.NoError(t, err)
	parser, err := ast.NewCachingParser(registry, 64)
	require.NoError(t, err)
	return parser
}

func TestBuild_ImportChain_NoListing(t *testing.T) {
	fsys := MapFS{
		"src/a.js": []byte(`import { b } from './b'; function a() { b(); }`),
		"src/b.js": []byte(`import { c } from './c'; export function b() { c(); }`),
		"src/c.js": []byte(`export function c() {}`),
	}
	b := NewBuilder(fsys, newTestParser(t))

	result, err := b.Build(context.Background(), "src/a.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.js", "src/b.js", "src/c.js"}, result.Files,
		"without a workspace listing every resolved import is admitted")
	assert.Empty(t, result.Skipped)
}

func TestBuild_AdmissionPolicy(t *testing.T) {
	deepDep := "proj/node_modules/lib/a/b/c/d/leaf.js"
	shallowDep := "proj/node_modules/lib/index.js"
	fsys := MapFS{
		"proj/src/main.js": []byte(
			`import { x } from '../node_modules/lib/a/b/c/d/leaf';
			 import { y } from '../node_modules/lib';
			 import { z } from './local';`),
		deepDep:             []byte(`export function x() {}`),
		shallowDep:          []byte(`export function y() {}`),
		"proj/src/local.js": []byte(`export function z() {}`),
	}
	listing := NewListing("proj", []string{"proj/src/main.js", "proj/src/local.js"})
	b := NewBuilder(fsys, newTestParser(t), WithListing(listing))

	result, err := b.Build(context.Background(), "proj/src/main.js")
	require.NoError(t, err)

	assert.Contains(t, result.Files, "proj/src/local.js", "listed files are admitted")
	assert.Contains(t, result.Files, shallowDep,
		"dependencies within the segment bound are admitted")
	assert.NotContains(t, result.Files, deepDep,
		"dependencies nested 5 segments past the marker are excluded")
	assert.Contains(t, result.Skipped, deepDep)
}

func TestBuild_PathLengthBound(t *testing.T) {
	longDir := strings.Repeat("verylongdirectoryname/", 12)
	longPath := "proj/" + longDir + "mod.js"
	require.Greater(t, len(longPath), DefaultMaxPathLength)

	fsys := MapFS{
		"proj/main.js": []byte(`import { m } from './` + longDir + `mod';`),
		longPath:       []byte(`export function m() {}`),
	}
	listing := NewListing("proj", []string{"proj/main.js"})
	b := NewBuilder(fsys, newTestParser(t), WithListing(listing))

	result, err := b.Build(context.Background(), "proj/main.js")
	require.NoError(t, err)
	assert.NotContains(t, result.Files, longPath)
	assert.Contains(t, result.Skipped, longPath)
}

func TestBuild_CycleTerminates(t *testing.T) {
	fsys := MapFS{
		"src/a.js": []byte(`import { b } from './b'; export function a() { b(); }`),
		"src/b.js": []byte(`import { a } from './a'; export function b() { a(); }`),
	}
	b := NewBuilder(fsys, newTestParser(t))

	result, err := b.Build(context.Background(), "src/a.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.js", "src/b.js"}, result.Files)
}

func TestBuild_UnresolvedAndExternalImports(t *testing.T) {
	fsys := MapFS{
		"src/a.js": []byte(`
			import missing from './gone';
			import lodash from 'lodash';
			export function a() {}`),
	}
	b := NewBuilder(fsys, newTestParser(t))

	result, err := b.Build(context.Background(), "src/a.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.js"}, result.Files,
		"unresolved and non-relative imports admit nothing, silently")
	assert.Empty(t, result.Warnings)
}

func TestBuild_ActiveFileUnreadable(t *testing.T) {
	b := NewBuilder(MapFS{}, newTestParser(t))
	_, err := b.Build(context.Background(), "src/missing.js")
	assert.ErrorIs(t, err, ErrActiveFileUnreadable)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fsys := MapFS{"src/a.js": []byte(`export function a() {}`)}
	b := NewBuilder(fsys, newTestParser(t))
	_, err := b.Build(ctx, "src/a.js")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveImport(t *testing.T) {
	fsys := MapFS{
		"src/util.ts":       []byte(`x`),
		"src/util.js":       []byte(`x`),
		"src/exact.js":      []byte(`x`),
		"src/index.ts":      []byte(`x`),
		"src/pkg/index.jsx": []byte(`x`),
		"lib/top.js":        []byte(`x`),
	}

	tests := []struct {
		name      string
		from      string
		specifier string
		want      string
		wantOK    bool
	}{
		{name: "extension probe prefers ts", from: "src/main.js", specifier: "./util", want: "src/util.ts", wantOK: true},
		{name: "exact path wins", from: "src/main.js", specifier: "./exact.js", want: "src/exact.js", wantOK: true},
		{name: "directory index", from: "src/main.js", specifier: "./pkg", want: "src/pkg/index.jsx", wantOK: true},
		{name: "parent traversal", from: "src/main.js", specifier: "../lib/top", want: "lib/top.js", wantOK: true},
		{name: "bare dot is the directory index", from: "src/main.js", specifier: ".", want: "src/index.ts", wantOK: true},
		{name: "bare dotdot is the parent index", from: "src/pkg/main.js", specifier: "..", want: "src/index.ts", wantOK: true},
		{name: "nonexistent", from: "src/main.js", specifier: "./nope", wantOK: false},
		{name: "bare specifier is opaque", from: "src/main.js", specifier: "lodash", wantOK: false},
		{name: "scoped package is opaque", from: "src/main.js", specifier: "@scope/pkg", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveImport(tt.from, tt.specifier, fsys)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSegmentsPastMarker(t *testing.T) {
	tests := []struct {
		path     string
		segments int
		under    bool
	}{
		{path: "proj/node_modules/lib/index.js", segments: 2, under: true},
		{path: "proj/node_modules/lib/a/b/c/d/leaf.js", segments: 6, under: true},
		{path: "proj/src/main.js", segments: 0, under: false},
		{path: "a/node_modules/b/node_modules/c/index.js", segments: 2, under: true},
	}
	for _, tt := range tests {
		segments, under := segmentsPastMarker(tt.path, DefaultLibraryMarker)
		assert.Equal(t, tt.under, under, tt.path)
		assert.Equal(t, tt.segments, segments, tt.path)
	}
}
