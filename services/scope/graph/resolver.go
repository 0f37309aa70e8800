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
	"log/slog"

	"github.com/AleutianAI/filescope/services/scope/ast"
	"github.com/AleutianAI/filescope/services/scope/closure"
)

// Resolver maps raw call sites to declaration IDs.
//
// Bare identifier calls run through an ordered strategy cascade: cheap
// and precise strategies first, the exhaustive scan before giving up.
// The ordering trades some false positives (a wrong same-named function
// from another file) for fewer false negatives (missing edges). A bare
// call that resolves nowhere yields the sentinel ID, so the graph stays
// connected and visibly marks the gap.
//
// Method calls resolve through receiver type bindings or not at all: an
// unresolvable method call contributes no edge, a deliberate undercount
// rather than a false positive.
//
// Thread Safety: read-only over the Index after construction; safe for
// concurrent use.
type Resolver struct {
	index  *Index
	fsys   closure.FileSystem
	logger *slog.Logger

	bareStrategies []bareStrategy
}

// bareStrategy attempts one resolution approach for a bare identifier
// call. Returns the declaration and true on success.
type bareStrategy func(name, enclosingFile string) (*ast.Declaration, bool)

// NewResolver creates a resolver over an indexed closure. The file
// system is used to re-run import path resolution for the import-table
// strategy.
func NewResolver(index *Index, fsys closure.FileSystem, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		index:  index,
		fsys:   fsys,
		logger: logger.With("component", "resolver"),
	}
	r.bareStrategies = []bareStrategy{
		r.resolveSameFile,
		r.resolveViaImports,
		r.resolveByScan,
	}
	return r
}

// Resolve maps one call site to a declaration ID.
//
// Inputs:
//   - site: The raw call site
//   - enclosing: The declaration whose body contains the call
//
// Outputs:
//   - string: Declaration ID or sentinel ID
//   - bool: False when the call contributes no target (unresolvable
//     method calls only; bare calls always produce at least a sentinel)
func (r *Resolver) Resolve(site ast.CallSite, enclosing *ast.Declaration) (string, bool) {
	if site.IsMethod {
		return r.resolveMethodCall(site, enclosing)
	}
	for _, strategy := range r.bareStrategies {
		if decl, ok := strategy(site.Target, enclosing.FilePath); ok {
			return decl.ID(), true
		}
	}
	return SentinelID(site.Target), true
}

// resolveSameFile finds a declaration of the name in the enclosing file.
func (r *Resolver) resolveSameFile(name, enclosingFile string) (*ast.Declaration, bool) {
	decl := r.index.LookupInFile(enclosingFile, name)
	if decl == nil {
		return nil, false
	}
	return decl, true
}

// resolveViaImports consults the enclosing file's import table: when the
// name was imported from a resolvable source file and that file declares
// it, the imported declaration wins.
func (r *Resolver) resolveViaImports(name, enclosingFile string) (*ast.Declaration, bool) {
	result := r.index.Result(enclosingFile)
	if result == nil {
		return nil, false
	}
	for _, imp := range result.Imports {
		if !importBinds(imp, name) {
			continue
		}
		source, ok := closure.ResolveImport(enclosingFile, imp.Path, r.fsys)
		if !ok {
			continue
		}
		if decl := r.index.LookupInFile(source, name); decl != nil {
			return decl, true
		}
	}
	return nil, false
}

func importBinds(imp ast.Import, name string) bool {
	for _, bound := range imp.Names {
		if bound == name {
			return true
		}
	}
	return false
}

// resolveByScan searches the whole closure in file order and takes the
// first declaration of the name. Ambiguous when several files declare
// it; attribution is approximate in that case.
func (r *Resolver) resolveByScan(name, _ string) (*ast.Declaration, bool) {
	decl := r.index.ScanForName(name)
	if decl == nil {
		return nil, false
	}
	return decl, true
}

// resolveMethodCall handles obj.method(...) call sites.
//
// The receiver's class comes from the file's type bindings, which fold
// together TypeScript annotations and `new ClassName()` assignments. A
// receiver of "this" resolves against the enclosing method's own class.
// Calls whose receiver class cannot be determined produce no target.
func (r *Resolver) resolveMethodCall(site ast.CallSite, enclosing *ast.Declaration) (string, bool) {
	className, ok := r.receiverClass(site, enclosing)
	if !ok {
		return "", false
	}

	class := r.index.ClassForName(className, enclosing.FilePath)
	if class == nil {
		return "", false
	}
	method := r.index.Method(class, site.Target)
	if method == nil {
		// Walk up the extends chain; the method may be inherited. The
		// seen set terminates cyclic hierarchies, which parse fine even
		// though no runtime accepts them.
		seen := map[string]struct{}{class.ID(): {}}
		for parent := class; parent != nil && parent.Extends != ""; {
			parent = r.index.ClassForName(parent.Extends, parent.FilePath)
			if parent == nil {
				break
			}
			if _, visited := seen[parent.ID()]; visited {
				break
			}
			seen[parent.ID()] = struct{}{}
			if method = r.index.Method(parent, site.Target); method != nil {
				break
			}
		}
	}
	if method == nil {
		return "", false
	}
	return method.ID(), true
}

func (r *Resolver) receiverClass(site ast.CallSite, enclosing *ast.Declaration) (string, bool) {
	if site.Receiver == "" {
		return "", false
	}
	if site.Receiver == "this" {
		if enclosing.ClassName == "" {
			return "", false
		}
		return enclosing.ClassName, true
	}
	result := r.index.Result(enclosing.FilePath)
	if result == nil {
		return "", false
	}
	className, ok := result.TypeBindings[site.Receiver]
	return className, ok
}
