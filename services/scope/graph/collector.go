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
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/filescope/services/scope/ast"
)

// Collector walks every parsed file of a closure once and produces the
// call map: declaration ID to resolved call targets.
//
// The collector runs strictly after the parse barrier. Resolution needs
// the whole-program declaration set, so no call may be resolved before
// every file has been parsed and indexed.
type Collector struct {
	index    *Index
	resolver *Resolver
	logger   *slog.Logger
}

// NewCollector creates a collector over an indexed closure.
func NewCollector(index *Index, resolver *Resolver, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		index:    index,
		resolver: resolver,
		logger:   logger.With("component", "collector"),
	}
}

// Collect builds the call map for the whole closure.
//
// Description:
//
//	Files are visited in closure order and declarations in source order,
//	class methods after their class, so the map's insertion order is
//	deterministic for a fixed closure. Generated files are skipped.
//	Cancellation is checked at every declaration; a cancelled run
//	returns nothing.
//
// Outputs:
//   - *CallMap: Declaration IDs to resolved targets
//   - error: Context cancellation only
func (c *Collector) Collect(ctx context.Context) (*CallMap, error) {
	ctx, span := tracer.Start(ctx, "graph.Collect")
	defer span.End()

	callMap := NewCallMap()
	for _, file := range c.index.Files() {
		if isGenerated(file) {
			continue
		}
		result := c.index.Result(file)
		for _, decl := range result.Declarations {
			if err := c.collectDecl(ctx, callMap, decl); err != nil {
				return nil, err
			}
			for _, method := range decl.Methods {
				if err := c.collectDecl(ctx, callMap, method); err != nil {
					return nil, err
				}
			}
		}
	}

	span.SetAttributes(attribute.Int("callmap.declarations", callMap.Len()))
	c.logger.Debug("call map collected", "declarations", callMap.Len())
	return callMap, nil
}

func (c *Collector) collectDecl(ctx context.Context, callMap *CallMap, decl *ast.Declaration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !decl.Callable() {
		// Classes enter the graph through contains and extends edges;
		// their call sites live on the methods.
		return nil
	}
	callMap.Register(decl.ID())
	for _, site := range decl.Calls {
		if targetID, ok := c.resolver.Resolve(site, decl); ok {
			callMap.Add(decl.ID(), targetID)
		}
	}
	return nil
}

// isGenerated recognizes files whose declarations should not enter the
// call map: type declaration files and minified bundles.
func isGenerated(path string) bool {
	return strings.HasSuffix(path, ".d.ts") || strings.HasSuffix(path, ".min.js")
}
