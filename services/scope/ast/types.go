// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides language front-ends for the filescope analysis engine.
//
// Parsers in this package turn JavaScript/TypeScript source text into
// declarations, raw call sites, and import records. They perform no
// cross-file work: resolution of call targets happens later, in the graph
// package, once every file in the closure has been parsed.
package ast

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DeclKind identifies the syntactic shape of a declaration.
type DeclKind int

const (
	// DeclKindUnknown indicates an unrecognized declaration.
	DeclKindUnknown DeclKind = iota

	// DeclKindFunction is a named function declaration.
	DeclKindFunction

	// DeclKindClass is a class declaration.
	DeclKindClass

	// DeclKindMethod is a function defined inside a class body.
	DeclKindMethod

	// DeclKindVariable is a const/let/var binding whose initializer is an
	// arrow function or function expression.
	DeclKindVariable
)

// declKindNames maps DeclKind values to their string representations.
var declKindNames = map[DeclKind]string{
	DeclKindUnknown:  "unknown",
	DeclKindFunction: "function",
	DeclKindClass:    "class",
	DeclKindMethod:   "method",
	DeclKindVariable: "variable",
}

// String returns the string representation of the DeclKind.
func (k DeclKind) String() string {
	if name, ok := declKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON serializes the kind as a string for readability.
func (k DeclKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts both string and numeric kind values.
func (k *DeclKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = ParseDeclKind(s)
		return nil
	}
	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("DeclKind must be string or int: %w", err)
	}
	*k = DeclKind(i)
	return nil
}

// ParseDeclKind converts a string to a DeclKind.
// Returns DeclKindUnknown if the string is not recognized.
func ParseDeclKind(s string) DeclKind {
	for kind, name := range declKindNames {
		if name == s {
			return kind
		}
	}
	return DeclKindUnknown
}

// Location represents a position range within a source file.
//
// Line numbers are 1-indexed, column numbers are 0-indexed, matching the
// convention used by most editors and LSP.
type Location struct {
	// FilePath is the path to the source file, relative to the workspace root.
	FilePath string `json:"file_path"`

	// StartLine is the 1-indexed line where the range starts.
	StartLine int `json:"start_line"`

	// EndLine is the 1-indexed line where the range ends.
	EndLine int `json:"end_line"`

	// StartCol is the 0-indexed column on StartLine.
	StartCol int `json:"start_col"`

	// EndCol is the 0-indexed column on EndLine.
	EndCol int `json:"end_col"`
}

// String returns "file_path:start_line:start_col".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.StartLine, l.StartCol)
}

// CallSite is a single call expression found inside a declaration body.
//
// A call site carries only what the parser can see textually. The target is
// never resolved here; the graph package's resolution cascade turns sites
// into declaration ids after the whole closure has been parsed.
type CallSite struct {
	// Target is the called identifier. For obj.method(args) this is the
	// final property name ("method"), not the full member expression.
	Target string `json:"target"`

	// Receiver is the receiver expression text for property-access calls
	// ("obj" in obj.method()). Empty for bare identifier calls.
	Receiver string `json:"receiver,omitempty"`

	// IsMethod is true for property-access calls (obj.method(), this.x()).
	IsMethod bool `json:"is_method,omitempty"`

	// Location is where the call expression appears in the source.
	Location Location `json:"location"`
}

// Declaration is a function, class, method, or function-valued variable
// found by static text analysis of one file.
//
// Declarations are discovered once per analysis run and never mutated after
// parsing completes. Identity follows the composite-key convention enforced
// by ID(): kind, file path, and name (with class qualification for methods).
type Declaration struct {
	// Name is the declared identifier.
	Name string `json:"name"`

	// Kind is the syntactic shape of the declaration.
	Kind DeclKind `json:"kind"`

	// ClassName is the owning class for methods. Empty otherwise.
	ClassName string `json:"class_name,omitempty"`

	// FilePath is the containing file, relative to the workspace root.
	FilePath string `json:"file_path"`

	// StartLine is the 1-indexed line where the declaration starts.
	StartLine int `json:"start_line"`

	// EndLine is the 1-indexed line where the declaration ends.
	EndLine int `json:"end_line"`

	// StartCol is the 0-indexed column where the declaration starts.
	StartCol int `json:"start_col"`

	// EndCol is the 0-indexed column where the declaration ends.
	EndCol int `json:"end_col"`

	// Exported indicates the declaration carries an export keyword.
	Exported bool `json:"exported"`

	// Language is the source language, "javascript" or "typescript".
	Language string `json:"language"`

	// Extends is the parent class name for class declarations with a
	// heritage clause. Empty otherwise.
	Extends string `json:"extends,omitempty"`

	// Calls holds every call expression found inside the declaration body,
	// in source order. Empty (not nil) for declarations with empty bodies.
	Calls []CallSite `json:"calls"`

	// Methods holds the methods of a class declaration, in source order.
	// Nil for non-class declarations.
	Methods []*Declaration `json:"methods,omitempty"`
}

// ID returns the composite identity key for the declaration.
//
// Free functions, classes, and function-valued variables use
// "kind:filePath:name". Methods use "function:filePath:Class.method" so a
// method node renders with the function kind on the wire while staying
// unique per owning class.
func (d *Declaration) ID() string {
	switch d.Kind {
	case DeclKindMethod:
		return fmt.Sprintf("function:%s:%s.%s", d.FilePath, d.ClassName, d.Name)
	case DeclKindClass:
		return fmt.Sprintf("class:%s:%s", d.FilePath, d.Name)
	case DeclKindVariable:
		return fmt.Sprintf("variable:%s:%s", d.FilePath, d.Name)
	default:
		return fmt.Sprintf("function:%s:%s", d.FilePath, d.Name)
	}
}

// Location returns the declaration's source range.
func (d *Declaration) Location() Location {
	return Location{
		FilePath:  d.FilePath,
		StartLine: d.StartLine,
		EndLine:   d.EndLine,
		StartCol:  d.StartCol,
		EndCol:    d.EndCol,
	}
}

// Callable reports whether the declaration can be a call target:
// functions, methods, and function-valued variables qualify.
func (d *Declaration) Callable() bool {
	return d.Kind == DeclKindFunction || d.Kind == DeclKindMethod || d.Kind == DeclKindVariable
}

// ValidationError represents a validation failure with field context.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the Declaration's field values.
//
// Returns nil if valid, or a ValidationError describing the first invalid
// field. Methods of a class are validated recursively.
func (d *Declaration) Validate() error {
	if d.Name == "" {
		return ValidationError{Field: "Name", Message: "must not be empty"}
	}

	if d.FilePath == "" {
		return ValidationError{Field: "FilePath", Message: "must not be empty"}
	}

	if strings.Contains(d.FilePath, "..") {
		return ValidationError{Field: "FilePath", Message: "must not contain path traversal (..)"}
	}

	if d.StartLine < 1 {
		return ValidationError{Field: "StartLine", Message: "must be >= 1 (1-indexed)"}
	}

	if d.EndLine < d.StartLine {
		return ValidationError{Field: "EndLine", Message: "must be >= StartLine"}
	}

	if d.Kind == DeclKindMethod && d.ClassName == "" {
		return ValidationError{Field: "ClassName", Message: "must be set for methods"}
	}

	for i, m := range d.Methods {
		if err := m.Validate(); err != nil {
			return ValidationError{
				Field:   fmt.Sprintf("Methods[%d]", i),
				Message: err.Error(),
			}
		}
	}

	return nil
}

// Import represents one import statement in a source file.
//
// Import records feed two consumers: the closure builder (which resolves
// relative module paths to concrete files) and the import-based call
// resolution strategy (which maps imported local names to source files).
// They are not persisted beyond one analysis run.
type Import struct {
	// Path is the module specifier exactly as written in source.
	// Example: "./util", "../lib/math", "react".
	Path string `json:"path"`

	// Names lists the local names this import brings into scope: named
	// imports, the default import name, or the namespace alias.
	Names []string `json:"names,omitempty"`

	// IsRelative is true when Path starts with ".". Only relative imports
	// are resolved to workspace files; bare specifiers stay opaque.
	IsRelative bool `json:"is_relative,omitempty"`

	// IsDefault is true for 'import foo from "bar"'.
	IsDefault bool `json:"is_default,omitempty"`

	// IsNamespace is true for 'import * as foo from "bar"'.
	IsNamespace bool `json:"is_namespace,omitempty"`

	// IsCommonJS is true for 'const foo = require("bar")'.
	IsCommonJS bool `json:"is_commonjs,omitempty"`

	// Location is where the import statement appears.
	Location Location `json:"location"`
}

// ParseResult contains the output of parsing a single source file.
type ParseResult struct {
	// FilePath is the parsed file, relative to the workspace root.
	FilePath string `json:"file_path"`

	// Language is the detected language, "javascript" or "typescript".
	Language string `json:"language"`

	// Declarations holds every top-level declaration in source order.
	// Class methods appear as Methods of their class, not at top level.
	Declarations []*Declaration `json:"declarations"`

	// Imports lists all import statements with structured metadata.
	Imports []Import `json:"imports"`

	// TypeBindings maps local variable names to class names inferred from
	// the file's own syntax: `const s = new Server()` yields s -> Server,
	// and TS annotations like `const s: Server` yield the same. This is
	// the static type information the method-call resolver consumes; it
	// degrades gracefully to empty when nothing can be inferred.
	TypeBindings map[string]string `json:"type_bindings,omitempty"`

	// ParsedAtMilli is the Unix timestamp in milliseconds when parsing completed.
	ParsedAtMilli int64 `json:"parsed_at_milli"`

	// ParseDurationMs is how long parsing took in milliseconds.
	ParseDurationMs int64 `json:"parse_duration_ms"`

	// Errors contains non-fatal parse errors. The parse may still produce
	// partial results despite errors.
	Errors []string `json:"errors,omitempty"`

	// Hash is the SHA256 hash of the file content at parse time, used by
	// the parse cache for invalidation.
	Hash string `json:"hash"`
}

// HasErrors returns true if the parse result contains any errors.
func (r *ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// SetParsedAt sets the ParsedAtMilli field to the current time.
func (r *ParseResult) SetParsedAt() {
	r.ParsedAtMilli = time.Now().UnixMilli()
}

// DeclarationCount returns the number of declarations including class methods.
func (r *ParseResult) DeclarationCount() int {
	count := 0
	for _, d := range r.Declarations {
		count++
		count += len(d.Methods)
	}
	return count
}

// Validate checks the ParseResult's field values.
func (r *ParseResult) Validate() error {
	if r.FilePath == "" {
		return ValidationError{Field: "FilePath", Message: "must not be empty"}
	}

	if strings.Contains(r.FilePath, "..") {
		return ValidationError{Field: "FilePath", Message: "must not contain path traversal (..)"}
	}

	if r.Language == "" {
		return ValidationError{Field: "Language", Message: "must not be empty"}
	}

	for i, d := range r.Declarations {
		if err := d.Validate(); err != nil {
			return ValidationError{
				Field:   fmt.Sprintf("Declarations[%d]", i),
				Message: err.Error(),
			}
		}
	}

	for i, imp := range r.Imports {
		if imp.Path == "" {
			return ValidationError{
				Field:   fmt.Sprintf("Imports[%d].Path", i),
				Message: "must not be empty",
			}
		}
	}

	return nil
}
