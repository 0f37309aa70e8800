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
	"path/filepath"
	"strings"
	"sync"
)

// Parser extracts declarations, imports, and call sites from source code.
//
// Implementations must be safe for concurrent use: the analyzer parses
// files of a closure in parallel against a single parser instance.
type Parser interface {
	// Parse parses source content and extracts declarations.
	//
	// Inputs:
	//   - ctx: Context for cancellation
	//   - filePath: Path used for IDs and locations (not read from disk)
	//   - content: Raw file content
	//
	// Outputs:
	//   - *ParseResult: Extracted declarations and imports
	//   - error: Parse failure, size limit, or context cancellation
	Parse(ctx context.Context, filePath string, content []byte) (*ParseResult, error)

	// Language returns the language identifier (e.g., "javascript").
	Language() string

	// Extensions returns file extensions this parser handles, with dots.
	Extensions() []string
}

// Registry maps languages and file extensions to parsers.
//
// Thread Safety: all methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	byLanguage  map[string]Parser
	byExtension map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]Parser),
		byExtension: make(map[string]Parser),
	}
}

// NewDefaultRegistry creates a registry with the JavaScript and TypeScript
// parsers already registered.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := r.Register(NewJavaScriptParser()); err != nil {
		return nil, err
	}
	if err := r.Register(NewTypeScriptParser()); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds a parser to the registry.
//
// Outputs:
//   - error: If the language or any extension is already registered
func (r *Registry) Register(p Parser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lang := strings.ToLower(p.Language())
	if _, exists := r.byLanguage[lang]; exists {
		return fmt.Errorf("parser for language %q already registered", lang)
	}
	for _, ext := range p.Extensions() {
		ext = strings.ToLower(ext)
		if existing, exists := r.byExtension[ext]; exists {
			return fmt.Errorf("extension %q already registered to %s", ext, existing.Language())
		}
	}

	r.byLanguage[lang] = p
	for _, ext := range p.Extensions() {
		r.byExtension[strings.ToLower(ext)] = p
	}
	return nil
}

// ForFile returns the parser for a file path based on its extension.
//
// Outputs:
//   - Parser: The matching parser
//   - error: ErrUnsupportedLanguage if no parser handles the extension
func (r *Registry) ForFile(filePath string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: extension %q (%s)", ErrUnsupportedLanguage, ext, filePath)
	}
	return p, nil
}

// ForLanguage returns the parser for a language identifier.
func (r *Registry) ForLanguage(language string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byLanguage[strings.ToLower(language)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	return p, nil
}

// Supports reports whether the registry has a parser for the file path.
func (r *Registry) Supports(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byExtension[ext]
	return ok
}

// Languages returns the registered language identifiers.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		langs = append(langs, lang)
	}
	return langs
}
