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
	"context"
	"log/slog"
	"path"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/filescope/services/scope/ast"
)

// MaxExpandDepth caps the call-graph traversal depth. Together with the
// visited set this guarantees termination on mutually recursive call
// maps; neither guard alone suffices if distinct declarations were ever
// to collide on an ID.
const MaxExpandDepth = 15

// Expander materializes the graph for an active file from a call map.
//
// Thread Safety: safe for concurrent use; every Expand call owns its own
// visited set and result.
type Expander struct {
	index    *Index
	logger   *slog.Logger
	maxDepth int
}

// ExpanderOption configures an Expander.
type ExpanderOption func(*Expander)

// WithMaxDepth overrides the expansion depth cap.
func WithMaxDepth(n int) ExpanderOption {
	return func(e *Expander) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// NewExpander creates an expander over an indexed closure.
func NewExpander(index *Index, logger *slog.Logger, opts ...ExpanderOption) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Expander{
		index:    index,
		logger:   logger.With("component", "expander"),
		maxDepth: MaxExpandDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// expansion is the per-run mutable state.
type expansion struct {
	data     *Data
	callMap  *CallMap
	visited  map[string]struct{}
	sentinel int64
	capHits  int64
}

// Expand builds the graph reachable from the active file's declarations.
//
// Description:
//
//	Seeds a file node for the active file plus one node per declaration
//	physically located in it, each with a contains edge. Then runs a
//	depth-first expansion over the call map from every seeded callable.
//	Node and edge creation is idempotent, so revisits and repeated calls
//	to the same target never duplicate anything. Sentinel targets get a
//	node and edge but are never recursed into.
//
// Inputs:
//   - ctx: Cancellation is checked at each expanded node. A cancelled
//     run returns nothing; no partial graph is defined as correct.
//   - activeFile: The file the analysis started from
//   - callMap: The collected call map for the closure
//
// Outputs:
//   - *Data: The materialized graph; every edge endpoint has a node
//   - error: Context cancellation only
func (e *Expander) Expand(ctx context.Context, activeFile string, callMap *CallMap) (*Data, error) {
	ctx, span := tracer.Start(ctx, "graph.Expand", trace.WithAttributes(
		attribute.String("active_file", activeFile),
	))
	defer span.End()

	run := &expansion{
		data:    NewData(),
		callMap: callMap,
		visited: make(map[string]struct{}),
	}

	fileID := FileID(activeFile)
	run.data.AddNode(&Node{
		ID:           fileID,
		Kind:         NodeKindFile,
		Label:        path.Base(activeFile),
		FilePath:     activeFile,
		IsActiveFile: true,
	})

	result := e.index.Result(activeFile)
	if result == nil {
		// Active file failed to parse; only its file node is returned.
		return run.data, nil
	}

	for _, decl := range result.Declarations {
		e.materialize(run, decl)
		if err := e.visit(ctx, run, decl, 0); err != nil {
			return nil, err
		}
		for _, method := range decl.Methods {
			e.materialize(run, method)
			if err := e.visit(ctx, run, method, 0); err != nil {
				return nil, err
			}
		}
	}

	recordExpansion(ctx, run.data, run.sentinel, run.capHits)
	span.SetAttributes(
		attribute.Int("graph.nodes", len(run.data.Nodes)),
		attribute.Int("graph.edges", len(run.data.Edges)),
	)
	e.logger.Debug("graph expanded",
		"active_file", activeFile,
		"nodes", len(run.data.Nodes),
		"edges", len(run.data.Edges))
	return run.data, nil
}

// visit expands one declaration's call targets and recurses into each
// non-sentinel target. A declaration at the depth cap keeps its node but
// materializes no further targets, so declarations beyond the cap never
// appear in the result.
func (e *Expander) visit(ctx context.Context, run *expansion, decl *ast.Declaration, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := decl.ID()
	if _, seen := run.visited[id]; seen {
		return nil
	}
	run.visited[id] = struct{}{}

	if depth >= e.maxDepth {
		run.capHits++
		return nil
	}

	for _, targetID := range run.callMap.Targets(id) {
		if IsSentinel(targetID) {
			if run.data.AddNode(&Node{
				ID:         targetID,
				Kind:       NodeKindFunction,
				Label:      SentinelName(targetID),
				FilePath:   UnknownFilePath,
				IsExternal: true,
			}) {
				run.sentinel++
			}
			run.data.AddEdge(id, targetID, EdgeKindCalls)
			continue
		}

		target := e.index.Declaration(targetID)
		if target == nil {
			// A call map entry with no backing declaration would be a
			// collection bug; drop the edge rather than fabricate a node.
			continue
		}
		e.materialize(run, target)
		run.data.AddEdge(id, targetID, EdgeKindCalls)
		if err := e.visit(ctx, run, target, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// materialize creates the node for a declaration along with its owning
// file node and contains chain. Methods hang off their class node, which
// hangs off the file; everything else hangs off the file directly. A
// class with a resolvable parent also gets its extends edge.
func (e *Expander) materialize(run *expansion, decl *ast.Declaration) {
	id := decl.ID()
	if run.data.HasNode(id) {
		// Already materialized with its contains chain. The early return
		// also breaks inheritance cycles (A extends B extends A).
		return
	}

	fileID := FileID(decl.FilePath)
	run.data.AddNode(&Node{
		ID:       fileID,
		Kind:     NodeKindFile,
		Label:    path.Base(decl.FilePath),
		FilePath: decl.FilePath,
	})

	run.data.AddNode(&Node{
		ID:        id,
		Kind:      nodeKindFor(decl),
		Label:     decl.Name,
		FilePath:  decl.FilePath,
		StartLine: decl.StartLine,
		StartCol:  decl.StartCol,
	})

	switch decl.Kind {
	case ast.DeclKindMethod:
		class := e.index.LookupInFile(decl.FilePath, decl.ClassName)
		if class != nil && class.Kind == ast.DeclKindClass {
			e.materialize(run, class)
			run.data.AddEdge(class.ID(), id, EdgeKindContains)
			return
		}
		run.data.AddEdge(fileID, id, EdgeKindContains)
	case ast.DeclKindClass:
		run.data.AddEdge(fileID, id, EdgeKindContains)
		if decl.Extends != "" {
			if parent := e.index.ClassForName(decl.Extends, decl.FilePath); parent != nil {
				e.materialize(run, parent)
				run.data.AddEdge(id, parent.ID(), EdgeKindExtends)
			}
		}
	default:
		run.data.AddEdge(fileID, id, EdgeKindContains)
	}
}

func nodeKindFor(decl *ast.Declaration) NodeKind {
	switch decl.Kind {
	case ast.DeclKindClass:
		return NodeKindClass
	case ast.DeclKindVariable:
		return NodeKindVariable
	default:
		return NodeKindFunction
	}
}
