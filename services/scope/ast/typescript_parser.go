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
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptParser parses TypeScript and TSX source using tree-sitter.
// TSX files need the distinct tsx grammar; plain .ts uses the typescript
// grammar. Extraction is otherwise identical to JavaScript, with the
// addition of type annotations feeding the type binding table.
//
// Thread Safety: safe for concurrent use.
type TypeScriptParser struct {
	logger *slog.Logger
}

// NewTypeScriptParser creates a TypeScript parser.
func NewTypeScriptParser() *TypeScriptParser {
	return &TypeScriptParser{
		logger: slog.Default().With("component", "ts_parser"),
	}
}

// Language returns "typescript".
func (p *TypeScriptParser) Language() string { return "typescript" }

// Extensions returns the file extensions this parser handles.
func (p *TypeScriptParser) Extensions() []string {
	return []string{".ts", ".tsx"}
}

// Parse parses TypeScript content, selecting the tsx grammar for .tsx files.
func (p *TypeScriptParser) Parse(ctx context.Context, filePath string, content []byte) (*ParseResult, error) {
	grammar := typescript.GetLanguage()
	if strings.EqualFold(filepath.Ext(filePath), ".tsx") {
		grammar = tsx.GetLanguage()
	}
	return parseWithGrammar(ctx, p.logger, filePath, p.Language(), content, grammar)
}
