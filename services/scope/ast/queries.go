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

// Tree-sitter node type names shared by the JavaScript and TypeScript
// grammars (the TypeScript grammar extends the JavaScript one, so all the
// names below are valid in both).
const (
	// Top-level nodes
	nodeProgram = "program"

	// Import-related nodes
	nodeImportStatement = "import_statement"
	nodeImportClause    = "import_clause"
	nodeNamespaceImport = "namespace_import"
	nodeNamedImports    = "named_imports"
	nodeImportSpecifier = "import_specifier"
	nodeString          = "string"
	nodeStringFragment  = "string_fragment"

	// Export-related nodes
	nodeExportStatement = "export_statement"

	// Declaration nodes
	nodeFunctionDeclaration   = "function_declaration"
	nodeGeneratorFunctionDecl = "generator_function_declaration"
	nodeClassDeclaration      = "class_declaration"
	nodeLexicalDeclaration    = "lexical_declaration"
	nodeVariableDeclaration   = "variable_declaration"
	nodeVariableDeclarator    = "variable_declarator"

	// Class-related nodes
	nodeClassBody          = "class_body"
	nodeClassHeritage      = "class_heritage"
	nodeMethodDefinition   = "method_definition"
	nodePropertyIdentifier = "property_identifier"

	// Function-related nodes
	nodeFormalParameters = "formal_parameters"
	nodeArrowFunction    = "arrow_function"
	nodeFunctionExpr     = "function_expression"

	// TypeScript-only nodes (absent from pure-JavaScript trees, which is
	// fine: the walker simply never encounters them there)
	nodeTypeAnnotation = "type_annotation"
	nodeTypeIdentifier = "type_identifier"

	// Identifier nodes
	nodeIdentifier = "identifier"
	nodeThis       = "this"

	// Expression nodes
	nodeCallExpression   = "call_expression"
	nodeNewExpression    = "new_expression"
	nodeMemberExpression = "member_expression"
	nodeStatementBlock   = "statement_block"
)

// Extraction limits shared by all parsers in this package.
const (
	// DefaultMaxFileSize is the largest file a parser will accept (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the threshold above which a parse logs a warning (1MB).
	WarnFileSize = 1 * 1024 * 1024

	// MaxCallSitesPerDecl caps call-site extraction per declaration body,
	// bounding memory on generated or adversarial files.
	MaxCallSitesPerDecl = 1000

	// MaxWalkDepth caps AST traversal depth. The walker uses an explicit
	// stack, so this bounds work rather than the goroutine stack.
	MaxWalkDepth = 200
)

// Grammar Structure Reference (shared JS/TS subset this package relies on)
//
// program
// ├── import_statement
// │   ├── import_clause
// │   │   ├── identifier                 // default import
// │   │   ├── namespace_import           // * as foo
// │   │   └── named_imports              // { foo, bar as baz }
// │   │       └── import_specifier+
// │   └── string                         // module path
// │       └── string_fragment
// ├── export_statement
// │   └── <declaration>
// ├── function_declaration
// │   ├── identifier                     // name
// │   ├── formal_parameters
// │   └── statement_block
// ├── class_declaration
// │   ├── type_identifier | identifier   // name (TS uses type_identifier)
// │   ├── class_heritage?                // extends Parent
// │   └── class_body
// │       └── method_definition
// │           ├── property_identifier    // name
// │           └── statement_block
// └── lexical_declaration | variable_declaration
//     └── variable_declarator
//         ├── identifier                 // name
//         ├── type_annotation?           // TS: ": Server"
//         └── arrow_function | function_expression | new_expression | ...
