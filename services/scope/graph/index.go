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
	"github.com/AleutianAI/filescope/services/scope/ast"
)

// Index holds the parsed closure in lookup-friendly form. It is built
// once per analysis run after the parse barrier and is read-only from
// then on, so the resolver and expander can share it freely.
type Index struct {
	// files preserves closure order. The exhaustive-scan resolution
	// strategy iterates in this order, which is what makes its
	// first-match pick deterministic for a fixed closure.
	files   []string
	results map[string]*ast.ParseResult

	// declsByID covers every declaration in the closure, methods included.
	declsByID map[string]*ast.Declaration

	// namesByFile maps file -> declaration name -> first declaration of
	// that name in source order. Methods are not included; they are only
	// reachable through their class.
	namesByFile map[string]map[string]*ast.Declaration
}

// NewIndex builds an Index from parse results in closure order.
//
// Inputs:
//   - files: Closure file paths in discovery order
//   - results: Parse result per file; files absent from the map (files
//     that failed to parse) are skipped
func NewIndex(files []string, results map[string]*ast.ParseResult) *Index {
	idx := &Index{
		results:     make(map[string]*ast.ParseResult, len(results)),
		declsByID:   make(map[string]*ast.Declaration),
		namesByFile: make(map[string]map[string]*ast.Declaration),
	}
	for _, file := range files {
		result, ok := results[file]
		if !ok {
			continue
		}
		idx.files = append(idx.files, file)
		idx.results[file] = result

		names := make(map[string]*ast.Declaration, len(result.Declarations))
		for _, decl := range result.Declarations {
			idx.declsByID[decl.ID()] = decl
			if _, taken := names[decl.Name]; !taken {
				names[decl.Name] = decl
			}
			for _, method := range decl.Methods {
				idx.declsByID[method.ID()] = method
			}
		}
		idx.namesByFile[file] = names
	}
	return idx
}

// Files returns the indexed file paths in closure order.
func (idx *Index) Files() []string { return idx.files }

// Result returns the parse result for a file, or nil.
func (idx *Index) Result(file string) *ast.ParseResult {
	return idx.results[file]
}

// Declaration returns the declaration with the given ID, or nil.
func (idx *Index) Declaration(id string) *ast.Declaration {
	return idx.declsByID[id]
}

// LookupInFile returns the declaration of the given name in a file, or
// nil. Methods are not visible here.
func (idx *Index) LookupInFile(file, name string) *ast.Declaration {
	return idx.namesByFile[file][name]
}

// ScanForName searches every file in closure order for a declaration of
// the given name and returns the first match. Multiple files declaring
// the same name make this attribution approximate; the first-in-order
// pick is a known ambiguity the caller tolerates.
func (idx *Index) ScanForName(name string) *ast.Declaration {
	for _, file := range idx.files {
		if decl := idx.namesByFile[file][name]; decl != nil {
			return decl
		}
	}
	return nil
}

// ClassForName finds a class declaration by name, preferring the given
// file, then its imports, then closure order.
func (idx *Index) ClassForName(name, preferredFile string) *ast.Declaration {
	if decl := idx.namesByFile[preferredFile][name]; decl != nil && decl.Kind == ast.DeclKindClass {
		return decl
	}
	for _, file := range idx.files {
		if decl := idx.namesByFile[file][name]; decl != nil && decl.Kind == ast.DeclKindClass {
			return decl
		}
	}
	return nil
}

// Method returns a class's method declaration by name, or nil.
func (idx *Index) Method(class *ast.Declaration, name string) *ast.Declaration {
	for _, m := range class.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Locate returns the (line, column) of the declaration with the given
// ID for navigation metadata. Read-only.
//
// Outputs:
//   - ast.Location: Position of the declaration
//   - bool: False for unknown IDs and sentinel IDs
func (idx *Index) Locate(id string) (ast.Location, bool) {
	decl := idx.declsByID[id]
	if decl == nil {
		return ast.Location{}, false
	}
	return decl.Location(), true
}
