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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// extractor walks a parsed tree-sitter AST and populates a ParseResult.
// The same walker serves both JavaScript and TypeScript: the TypeScript
// grammar is a superset, and the TS-only nodes (type annotations) are
// simply never produced by the JavaScript grammar.
type extractor struct {
	filePath string
	language string
	content  []byte
	result   *ParseResult
}

func newExtractor(filePath, language string, content []byte) *extractor {
	return &extractor{
		filePath: filePath,
		language: language,
		content:  content,
		result: &ParseResult{
			FilePath:     filePath,
			Language:     language,
			Declarations: []*Declaration{},
			Imports:      []Import{},
			TypeBindings: make(map[string]string),
		},
	}
}

// extract walks the top level of the program and dispatches on node type.
func (e *extractor) extract(root *sitter.Node) *ParseResult {
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		e.extractTopLevel(root.NamedChild(i), false)
	}
	return e.result
}

func (e *extractor) extractTopLevel(node *sitter.Node, exported bool) {
	switch node.Type() {
	case nodeImportStatement:
		if imp := e.extractImport(node); imp != nil {
			e.result.Imports = append(e.result.Imports, *imp)
		}
	case nodeExportStatement:
		// export default foo / export { foo } carry no declaration child;
		// only `export function foo() {}` and friends do.
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			e.extractTopLevel(node.NamedChild(i), true)
		}
	case nodeFunctionDeclaration, nodeGeneratorFunctionDecl:
		if decl := e.extractFunction(node, exported); decl != nil {
			e.result.Declarations = append(e.result.Declarations, decl)
		}
	case nodeClassDeclaration:
		if decl := e.extractClass(node, exported); decl != nil {
			e.result.Declarations = append(e.result.Declarations, decl)
		}
	case nodeLexicalDeclaration, nodeVariableDeclaration:
		e.extractVariables(node, exported)
	}
}

// extractImport handles ES module import statements.
//
// Handles: default imports, namespace imports (* as x), named imports
// ({ a, b as c }), side-effect imports (import 'x'), and mixes thereof.
func (e *extractor) extractImport(node *sitter.Node) *Import {
	imp := &Import{
		Names:    []string{},
		Location: e.location(node),
	}

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case nodeImportClause:
			e.extractImportClause(child, imp)
		case nodeString:
			imp.Path = e.stringContent(child)
		}
	}

	if imp.Path == "" {
		return nil
	}
	imp.IsRelative = isRelativeSpecifier(imp.Path)
	return imp
}

// isRelativeSpecifier reports whether an import path starts with a dot
// segment, including the bare "." and ".." directory-index forms.
func isRelativeSpecifier(path string) bool {
	return path == "." || path == ".." ||
		strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../")
}

func (e *extractor) extractImportClause(clause *sitter.Node, imp *Import) {
	count := int(clause.NamedChildCount())
	for i := 0; i < count; i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case nodeIdentifier:
			// import foo from '...'
			imp.IsDefault = true
			imp.Names = append(imp.Names, child.Content(e.content))
		case nodeNamespaceImport:
			// import * as foo from '...'
			imp.IsNamespace = true
			if id := firstNamedOfType(child, nodeIdentifier); id != nil {
				imp.Names = append(imp.Names, id.Content(e.content))
			}
		case nodeNamedImports:
			specCount := int(child.NamedChildCount())
			for j := 0; j < specCount; j++ {
				spec := child.NamedChild(j)
				if spec.Type() != nodeImportSpecifier {
					continue
				}
				// { name } binds name; { name as alias } binds alias.
				name := spec.ChildByFieldName("name")
				alias := spec.ChildByFieldName("alias")
				switch {
				case alias != nil:
					imp.Names = append(imp.Names, alias.Content(e.content))
				case name != nil:
					imp.Names = append(imp.Names, name.Content(e.content))
				}
			}
		}
	}
}

// extractFunction builds a Declaration for a top-level function and
// collects the call sites in its body.
func (e *extractor) extractFunction(node *sitter.Node, exported bool) *Declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	decl := e.newDecl(nameNode.Content(e.content), DeclKindFunction, node, exported)
	if body := node.ChildByFieldName("body"); body != nil {
		decl.Calls = e.extractCallSites(body)
	}
	return decl
}

// extractClass builds a class Declaration with its methods as child
// declarations. An `extends Parent` clause is recorded on the class.
func (e *extractor) extractClass(node *sitter.Node, exported bool) *Declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	className := nameNode.Content(e.content)
	decl := e.newDecl(className, DeclKindClass, node, exported)

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case nodeClassHeritage:
			// The heritage child is the superclass expression. Only plain
			// identifier parents resolve; expressions are left empty.
			if id := firstNamedOfType(child, nodeIdentifier); id != nil {
				decl.Extends = id.Content(e.content)
			}
		case nodeClassBody:
			bodyCount := int(child.NamedChildCount())
			for j := 0; j < bodyCount; j++ {
				member := child.NamedChild(j)
				if member.Type() != nodeMethodDefinition {
					continue
				}
				if m := e.extractMethod(member, className, exported); m != nil {
					decl.Methods = append(decl.Methods, m)
				}
			}
		}
	}
	return decl
}

func (e *extractor) extractMethod(node *sitter.Node, className string, exported bool) *Declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	decl := e.newDecl(nameNode.Content(e.content), DeclKindMethod, node, exported)
	decl.ClassName = className
	if body := node.ChildByFieldName("body"); body != nil {
		decl.Calls = e.extractCallSites(body)
	}
	return decl
}

// extractVariables handles const/let/var declarations. A declarator whose
// value is an arrow function or function expression becomes a function
// declaration; a `new ClassName()` value becomes a variable declaration
// with a recorded type binding; a TypeScript type annotation records a
// binding regardless of value. CommonJS requires become imports.
func (e *extractor) extractVariables(node *sitter.Node, exported bool) {
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		declarator := node.NamedChild(i)
		if declarator.Type() != nodeVariableDeclarator {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != nodeIdentifier {
			// Destructuring patterns are not tracked as declarations.
			continue
		}
		name := nameNode.Content(e.content)

		if typeNode := declarator.ChildByFieldName("type"); typeNode != nil {
			if tid := firstNamedOfType(typeNode, nodeTypeIdentifier); tid != nil {
				e.result.TypeBindings[name] = tid.Content(e.content)
			}
		}

		value := declarator.ChildByFieldName("value")
		if value == nil {
			e.result.Declarations = append(e.result.Declarations,
				e.newDecl(name, DeclKindVariable, declarator, exported))
			continue
		}

		switch value.Type() {
		case nodeArrowFunction, nodeFunctionExpr:
			decl := e.newDecl(name, DeclKindFunction, declarator, exported)
			if body := value.ChildByFieldName("body"); body != nil {
				decl.Calls = e.extractCallSites(body)
			}
			e.result.Declarations = append(e.result.Declarations, decl)
		case nodeNewExpression:
			decl := e.newDecl(name, DeclKindVariable, declarator, exported)
			if ctor := value.ChildByFieldName("constructor"); ctor != nil && ctor.Type() == nodeIdentifier {
				e.result.TypeBindings[name] = ctor.Content(e.content)
			}
			e.result.Declarations = append(e.result.Declarations, decl)
		case nodeCallExpression:
			if imp := e.extractRequire(value, name, declarator); imp != nil {
				e.result.Imports = append(e.result.Imports, *imp)
				continue
			}
			e.result.Declarations = append(e.result.Declarations,
				e.newDecl(name, DeclKindVariable, declarator, exported))
		default:
			e.result.Declarations = append(e.result.Declarations,
				e.newDecl(name, DeclKindVariable, declarator, exported))
		}
	}
}

// extractRequire recognizes `const x = require('path')` and returns the
// equivalent Import, or nil when the call is not a require.
func (e *extractor) extractRequire(call *sitter.Node, boundName string, declarator *sitter.Node) *Import {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != nodeIdentifier || fn.Content(e.content) != "require" {
		return nil
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	arg := args.NamedChild(0)
	if arg.Type() != nodeString {
		return nil
	}
	path := e.stringContent(arg)
	if path == "" {
		return nil
	}
	return &Import{
		Path:       path,
		Names:      []string{boundName},
		IsRelative: isRelativeSpecifier(path),
		IsCommonJS: true,
		Location:   e.location(declarator),
	}
}

// extractCallSites walks a function body with an explicit stack and
// records every call and constructor expression it contains. Nested
// function bodies are walked too: calls made by inner closures still
// execute when the outer function runs.
func (e *extractor) extractCallSites(body *sitter.Node) []CallSite {
	var sites []CallSite

	type frame struct {
		node  *sitter.Node
		depth int
	}
	stack := []frame{{body, 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > MaxWalkDepth || len(sites) >= MaxCallSitesPerDecl {
			continue
		}
		node := f.node

		switch node.Type() {
		case nodeCallExpression:
			if site, ok := e.extractSingleCallSite(node); ok {
				sites = append(sites, site)
			}
		case nodeNewExpression:
			if ctor := node.ChildByFieldName("constructor"); ctor != nil && ctor.Type() == nodeIdentifier {
				sites = append(sites, CallSite{
					Target:   ctor.Content(e.content),
					Location: e.location(node),
				})
			}
		case nodeVariableDeclarator:
			// `const s = new Server()` inside a body feeds the receiver
			// type heuristic for later `s.method()` calls.
			name := node.ChildByFieldName("name")
			value := node.ChildByFieldName("value")
			if name != nil && name.Type() == nodeIdentifier && value != nil && value.Type() == nodeNewExpression {
				if ctor := value.ChildByFieldName("constructor"); ctor != nil && ctor.Type() == nodeIdentifier {
					e.result.TypeBindings[name.Content(e.content)] = ctor.Content(e.content)
				}
			}
		}

		// Push children in reverse so sites come out in source order.
		count := int(node.NamedChildCount())
		for i := count - 1; i >= 0; i-- {
			stack = append(stack, frame{node.NamedChild(i), f.depth + 1})
		}
	}
	return sites
}

// extractSingleCallSite classifies one call_expression node.
//
// `foo()` yields a plain call site. `obj.method()` yields a method call
// with the receiver recorded when it is a plain identifier. Computed or
// chained callees that cannot be named are skipped.
func (e *extractor) extractSingleCallSite(call *sitter.Node) (CallSite, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return CallSite{}, false
	}

	switch fn.Type() {
	case nodeIdentifier:
		return CallSite{
			Target:   fn.Content(e.content),
			Location: e.location(call),
		}, true
	case nodeMemberExpression:
		prop := fn.ChildByFieldName("property")
		if prop == nil || prop.Type() != nodePropertyIdentifier {
			return CallSite{}, false
		}
		site := CallSite{
			Target:   prop.Content(e.content),
			IsMethod: true,
			Location: e.location(call),
		}
		if obj := fn.ChildByFieldName("object"); obj != nil {
			switch obj.Type() {
			case nodeIdentifier:
				site.Receiver = obj.Content(e.content)
			case nodeThis:
				site.Receiver = "this"
			}
		}
		return site, true
	}
	return CallSite{}, false
}

// --- helpers ---

func (e *extractor) newDecl(name string, kind DeclKind, node *sitter.Node, exported bool) *Declaration {
	return &Declaration{
		Name:      name,
		Kind:      kind,
		FilePath:  e.filePath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
		Exported:  exported,
		Language:  e.language,
	}
}

func (e *extractor) location(node *sitter.Node) Location {
	return Location{
		FilePath:  e.filePath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
	}
}

// stringContent returns the text inside a string literal node without its
// quotes, or "" when the node has no fragment (empty string literal).
func (e *extractor) stringContent(node *sitter.Node) string {
	if frag := firstNamedOfType(node, nodeStringFragment); frag != nil {
		return frag.Content(e.content)
	}
	return ""
}

func firstNamedOfType(node *sitter.Node, nodeType string) *sitter.Node {
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}
