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
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// JavaScriptParser parses JavaScript source using tree-sitter.
//
// Thread Safety: safe for concurrent use. A fresh tree-sitter parser is
// created per Parse call because the underlying C parser is not
// concurrency-safe.
type JavaScriptParser struct {
	logger *slog.Logger
}

// NewJavaScriptParser creates a JavaScript parser.
func NewJavaScriptParser() *JavaScriptParser {
	return &JavaScriptParser{
		logger: slog.Default().With("component", "js_parser"),
	}
}

// Language returns "javascript".
func (p *JavaScriptParser) Language() string { return "javascript" }

// Extensions returns the file extensions this parser handles.
func (p *JavaScriptParser) Extensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs"}
}

// Parse parses JavaScript content and extracts declarations, imports,
// call sites, and type bindings.
func (p *JavaScriptParser) Parse(ctx context.Context, filePath string, content []byte) (*ParseResult, error) {
	return parseWithGrammar(ctx, p.logger, filePath, p.Language(), content, javascript.GetLanguage())
}

// parseWithGrammar runs the shared parse pipeline: size checks, tree-sitter
// parse, extraction, and metrics. Both language parsers funnel through it.
func parseWithGrammar(ctx context.Context, logger *slog.Logger, filePath, language string, content []byte, grammar *sitter.Language) (result *ParseResult, err error) {
	ctx, span := tracer.Start(ctx, "ast.Parse", trace.WithAttributes(
		attribute.String("file", filePath),
		attribute.String("language", language),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		declCount := 0
		if result != nil {
			declCount = result.DeclarationCount()
		}
		recordParse(ctx, language, time.Since(start), declCount, err)
	}()

	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty content for %s", ErrInvalidContent, filePath)
	}
	if len(content) > DefaultMaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)",
			ErrFileTooLarge, filePath, len(content), DefaultMaxFileSize)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidContent, filePath)
	}
	if len(content) > WarnFileSize {
		logger.Warn("parsing large file", "file", filePath, "size_bytes", len(content))
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, &ParseError{FilePath: filePath, Message: "tree-sitter parse failed", Cause: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	ex := newExtractor(filePath, language, content)
	result = ex.extract(root)
	result.SetParsedAt()
	result.ParseDurationMs = time.Since(start).Milliseconds()

	if root.HasError() {
		// Tree-sitter recovers from syntax errors, so extraction above is
		// still best-effort. Record the condition rather than failing.
		result.Errors = append(result.Errors, "syntax errors present; extraction is partial")
		logger.Debug("partial parse", "file", filePath)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
