// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewJavaScriptParser()))

	err := r.Register(NewJavaScriptParser())
	assert.Error(t, err, "duplicate language registration should fail")
}

func TestRegistry_ForFile(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		wantLang string
		wantErr  bool
	}{
		{name: "javascript", path: "src/app.js", wantLang: "javascript"},
		{name: "jsx", path: "src/App.jsx", wantLang: "javascript"},
		{name: "mjs", path: "src/mod.mjs", wantLang: "javascript"},
		{name: "typescript", path: "src/server.ts", wantLang: "typescript"},
		{name: "tsx", path: "src/View.tsx", wantLang: "typescript"},
		{name: "uppercase extension", path: "src/APP.JS", wantLang: "javascript"},
		{name: "unsupported", path: "main.go", wantErr: true},
		{name: "no extension", path: "Makefile", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.ForFile(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedLanguage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLang, p.Language())
		})
	}
}

func TestJavaScriptParser_Functions(t *testing.T) {
	src := []byte(`
function main() {
  util();
  const s = new Server();
  s.listen();
}

function util() {
  helper();
}

const helper = () => {
  log("done");
};
`)
	p := NewJavaScriptParser()
	result, err := p.Parse(context.Background(), "src/main.js", src)
	require.NoError(t, err)
	require.Len(t, result.Declarations, 3)

	mainDecl := result.Declarations[0]
	assert.Equal(t, "main", mainDecl.Name)
	assert.Equal(t, DeclKindFunction, mainDecl.Kind)
	assert.Equal(t, "function:src/main.js:main", mainDecl.ID())

	targets := make([]string, 0, len(mainDecl.Calls))
	for _, c := range mainDecl.Calls {
		targets = append(targets, c.Target)
	}
	assert.Equal(t, []string{"util", "Server", "listen"}, targets,
		"call sites should come out in source order")

	listen := mainDecl.Calls[2]
	assert.True(t, listen.IsMethod)
	assert.Equal(t, "s", listen.Receiver)

	assert.Equal(t, "Server", result.TypeBindings["s"],
		"new expression should bind the variable to its class")

	helper := result.Declarations[2]
	assert.Equal(t, "helper", helper.Name)
	assert.Equal(t, DeclKindFunction, helper.Kind, "arrow functions are functions")
	require.Len(t, helper.Calls, 1)
	assert.Equal(t, "log", helper.Calls[0].Target)
}

func TestJavaScriptParser_Classes(t *testing.T) {
	src := []byte(`
export class Server extends Base {
  listen() {
    this.setup();
    bind();
  }
  setup() {}
}
`)
	p := NewJavaScriptParser()
	result, err := p.Parse(context.Background(), "src/server.js", src)
	require.NoError(t, err)
	require.Len(t, result.Declarations, 1)

	class := result.Declarations[0]
	assert.Equal(t, DeclKindClass, class.Kind)
	assert.Equal(t, "Server", class.Name)
	assert.Equal(t, "Base", class.Extends)
	assert.True(t, class.Exported)
	assert.Equal(t, "class:src/server.js:Server", class.ID())

	require.Len(t, class.Methods, 2)
	listen := class.Methods[0]
	assert.Equal(t, DeclKindMethod, listen.Kind)
	assert.Equal(t, "Server", listen.ClassName)
	assert.Equal(t, "function:src/server.js:Server.listen", listen.ID())
	require.Len(t, listen.Calls, 2)
	assert.Equal(t, "setup", listen.Calls[0].Target)
	assert.True(t, listen.Calls[0].IsMethod)
	assert.Equal(t, "bind", listen.Calls[1].Target)
	assert.False(t, listen.Calls[1].IsMethod)
}

func TestJavaScriptParser_Imports(t *testing.T) {
	src := []byte(`
import def from './local';
import * as ns from '../up';
import { a, b as c } from './named';
import 'side-effect';
import pkg from 'lodash';
const fs = require('fs');
const mod = require('./mod');
`)
	p := NewJavaScriptParser()
	result, err := p.Parse(context.Background(), "src/index.js", src)
	require.NoError(t, err)
	require.Len(t, result.Imports, 7)

	byPath := make(map[string]Import)
	for _, imp := range result.Imports {
		byPath[imp.Path] = imp
	}

	def := byPath["./local"]
	assert.True(t, def.IsDefault)
	assert.True(t, def.IsRelative)
	assert.Equal(t, []string{"def"}, def.Names)

	ns := byPath["../up"]
	assert.True(t, ns.IsNamespace)
	assert.True(t, ns.IsRelative)
	assert.Equal(t, []string{"ns"}, ns.Names)

	named := byPath["./named"]
	assert.Equal(t, []string{"a", "c"}, named.Names,
		"aliased import should bind the alias")

	side := byPath["side-effect"]
	assert.Empty(t, side.Names)
	assert.False(t, side.IsRelative)

	assert.False(t, byPath["lodash"].IsRelative)

	fsImp := byPath["fs"]
	assert.True(t, fsImp.IsCommonJS)
	assert.Equal(t, []string{"fs"}, fsImp.Names)

	modImp := byPath["./mod"]
	assert.True(t, modImp.IsCommonJS)
	assert.True(t, modImp.IsRelative)
}

func TestTypeScriptParser_TypeAnnotations(t *testing.T) {
	src := []byte(`
const server: Server = makeServer();

function run() {
  server.listen();
}
`)
	p := NewTypeScriptParser()
	result, err := p.Parse(context.Background(), "src/run.ts", src)
	require.NoError(t, err)

	assert.Equal(t, "Server", result.TypeBindings["server"],
		"type annotation should bind the variable to its class")

	require.Len(t, result.Declarations, 2)
	run := result.Declarations[1]
	require.Len(t, run.Calls, 1)
	assert.Equal(t, "listen", run.Calls[0].Target)
	assert.Equal(t, "server", run.Calls[0].Receiver)
}

func TestParse_EmptyContent(t *testing.T) {
	p := NewJavaScriptParser()
	_, err := p.Parse(context.Background(), "src/empty.js", nil)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestParse_InvalidUTF8(t *testing.T) {
	p := NewJavaScriptParser()
	src := []byte("function ok() {}\xff\xfe\xfd")
	_, err := p.Parse(context.Background(), "src/binary.js", src)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestParse_SyntaxErrorIsPartial(t *testing.T) {
	src := []byte(`
function good() { fine(); }
function broken( {
`)
	p := NewJavaScriptParser()
	result, err := p.Parse(context.Background(), "src/bad.js", src)
	require.NoError(t, err, "recoverable syntax errors should not fail the parse")
	assert.True(t, result.HasErrors())

	var names []string
	for _, d := range result.Declarations {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "good")
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewJavaScriptParser()
	_, err := p.Parse(ctx, "src/a.js", []byte("function a() {}"))
	assert.Error(t, err)
}

func TestCachingParser(t *testing.T) {
	registry, err := NewDefaultRegistry()
	require.NoError(t, err)
	cp, err := NewCachingParser(registry, 4)
	require.NoError(t, err)

	src := []byte("function a() { b(); }")
	first, err := cp.Parse(context.Background(), "src/a.js", src)
	require.NoError(t, err)
	require.NotEmpty(t, first.Hash)

	second, err := cp.Parse(context.Background(), "src/a.js", src)
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged content should hit the cache")

	changed, err := cp.Parse(context.Background(), "src/a.js", []byte("function a() { c(); }"))
	require.NoError(t, err)
	assert.NotSame(t, first, changed, "changed content should reparse")
	assert.Equal(t, "c", changed.Declarations[0].Calls[0].Target)

	cp.Invalidate("src/a.js")
	third, err := cp.Parse(context.Background(), "src/a.js", src)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first.Hash, third.Hash)
}
