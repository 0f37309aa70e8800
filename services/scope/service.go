// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scope analyzes what a single source file's code actually
// calls, and where that code lives. Given an active file it computes the
// import closure, parses every file in it, collects a call map, and
// expands the bounded call graph returned to the caller.
package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/filescope/services/scope/ast"
	"github.com/AleutianAI/filescope/services/scope/closure"
	"github.com/AleutianAI/filescope/services/scope/graph"
)

var tracer = otel.Tracer("filescope/scope")

// Result is the outcome of one analysis run.
type Result struct {
	// ActiveFile is the analyzed file.
	ActiveFile string `json:"active_file"`

	// Graph holds the nodes and edges reachable from the active file.
	Graph *graph.Data `json:"graph"`

	// Stats summarizes the graph.
	Stats graph.Stats `json:"stats"`

	// ClosureFiles is the number of files admitted into the closure.
	ClosureFiles int `json:"closure_files"`

	// Warnings accumulates non-fatal conditions from all stages.
	Warnings []string `json:"warnings,omitempty"`

	// DurationMs is the total analysis wall time.
	DurationMs int64 `json:"duration_ms"`
}

// Analyzer runs analyses. Construct once and reuse; the parse cache
// carries across runs while every run owns its own closure, call map,
// and visited set.
//
// Thread Safety: safe for concurrent use.
type Analyzer struct {
	fsys        closure.FileSystem
	parser      *ast.CachingParser
	logger      *slog.Logger
	workspace   string
	excludes    []string
	maxDepth    int
	parallelism int
	listing     *closure.Listing
	listingOnce sync.Once
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithWorkspaceRoot sets the workspace root. Its file listing feeds the
// closure admission policy; without one, admission is unconditional.
func WithWorkspaceRoot(root string) AnalyzerOption {
	return func(a *Analyzer) { a.workspace = root }
}

// WithExcludes sets glob patterns excluded from the workspace listing.
func WithExcludes(patterns []string) AnalyzerOption {
	return func(a *Analyzer) { a.excludes = patterns }
}

// WithFileSystem overrides the file system, for tests.
func WithFileSystem(fsys closure.FileSystem) AnalyzerOption {
	return func(a *Analyzer) { a.fsys = fsys }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = logger }
}

// WithMaxDepth overrides the graph expansion depth cap.
func WithMaxDepth(n int) AnalyzerOption {
	return func(a *Analyzer) { a.maxDepth = n }
}

// WithParallelism bounds concurrent file parsing. Defaults to NumCPU.
func WithParallelism(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.parallelism = n
		}
	}
}

// NewAnalyzer creates an analyzer with the default parser registry.
func NewAnalyzer(opts ...AnalyzerOption) (*Analyzer, error) {
	registry, err := ast.NewDefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("building parser registry: %w", err)
	}
	parser, err := ast.NewCachingParser(registry, ast.DefaultCacheSize)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		fsys:        closure.OSFileSystem{},
		parser:      parser,
		logger:      slog.Default().With("component", "analyzer"),
		maxDepth:    graph.MaxExpandDepth,
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// InvalidateFile drops the cached parse result for a path. Watch mode
// calls this on file-change notifications.
func (a *Analyzer) InvalidateFile(path string) {
	a.parser.Invalidate(path)
}

// Languages returns the language identifiers the analyzer can parse.
func (a *Analyzer) Languages() []string {
	return a.parser.Languages()
}

// Analyze builds the call graph for one active file.
//
// Description:
//
//	Stages run in order with a hard barrier between parsing and call
//	resolution: the exhaustive-scan resolution strategy needs the whole
//	closure's declarations indexed before any call is resolved. Parsing
//	of independent files runs in parallel. Every stage checks for
//	cancellation; a cancelled run returns nothing.
//
// Inputs:
//   - ctx: Context for cancellation
//   - activeFile: Path of the file to analyze
//
// Outputs:
//   - *Result: The graph plus run diagnostics
//   - error: ErrNoInput, ErrUnsupportedFile, or context cancellation
func (a *Analyzer) Analyze(ctx context.Context, activeFile string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "scope.Analyze", trace.WithAttributes(
		attribute.String("active_file", activeFile),
	))
	defer span.End()
	start := time.Now()

	if !a.parser.Supports(activeFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, activeFile)
	}

	result := &Result{ActiveFile: activeFile}

	// Stage 1: closure.
	listing := a.workspaceListing(result)
	builderOpts := []closure.Option{closure.WithLogger(a.logger)}
	if listing != nil {
		builderOpts = append(builderOpts, closure.WithListing(listing))
	}
	builder := closure.NewBuilder(a.fsys, a.parser, builderOpts...)

	cl, err := builder.Build(ctx, activeFile)
	if err != nil {
		if errors.Is(err, closure.ErrActiveFileUnreadable) {
			return nil, fmt.Errorf("%w: %s", ErrNoInput, activeFile)
		}
		return nil, err
	}
	result.ClosureFiles = len(cl.Files)
	result.Warnings = append(result.Warnings, cl.Warnings...)

	// Stage 2: parse the closure in parallel. The closure build already
	// parsed most files, so these are mostly cache hits.
	parsed, warnings, err := a.parseAll(ctx, cl.Files)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, warnings...)

	// Barrier: everything below observes the complete parsed set.
	index := graph.NewIndex(cl.Files, parsed)
	resolver := graph.NewResolver(index, a.fsys, a.logger)
	collector := graph.NewCollector(index, resolver, a.logger)

	callMap, err := collector.Collect(ctx)
	if err != nil {
		return nil, err
	}

	expander := graph.NewExpander(index, a.logger, graph.WithMaxDepth(a.maxDepth))
	data, err := expander.Expand(ctx, cl.ActiveFile, callMap)
	if err != nil {
		return nil, err
	}

	result.Graph = data
	result.Stats = data.Stats()
	result.DurationMs = time.Since(start).Milliseconds()

	span.SetAttributes(
		attribute.Int("closure.files", result.ClosureFiles),
		attribute.Int("graph.nodes", result.Stats.Nodes),
		attribute.Int("graph.edges", result.Stats.Edges),
	)
	a.logger.Info("analysis complete",
		"active_file", activeFile,
		"closure_files", result.ClosureFiles,
		"nodes", result.Stats.Nodes,
		"edges", result.Stats.Edges,
		"duration_ms", result.DurationMs)
	return result, nil
}

// parseAll parses every closure file concurrently, bounded by the
// configured parallelism. Per-file parse failures become warnings;
// only cancellation aborts the stage.
func (a *Analyzer) parseAll(ctx context.Context, files []string) (map[string]*ast.ParseResult, []string, error) {
	var mu sync.Mutex
	parsed := make(map[string]*ast.ParseResult, len(files))
	var warnings []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)

	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !a.parser.Supports(file) {
				return nil
			}
			content, err := a.fsys.ReadFile(file)
			if err != nil {
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("unreadable: %s", file))
				mu.Unlock()
				return nil
			}
			result, err := a.parser.Parse(gctx, file, content)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("parse failed: %s: %v", file, err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			parsed[file] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return parsed, warnings, nil
}

// workspaceListing lazily builds the workspace file listing. A failure
// to list is tolerated: admission relaxes to unconditional and the
// failure is recorded as a warning on the current result.
func (a *Analyzer) workspaceListing(result *Result) *closure.Listing {
	if a.workspace == "" {
		return nil
	}
	a.listingOnce.Do(func() {
		listing, warnings, err := closure.ListWorkspace(a.workspace, a.excludes, a.logger)
		if err != nil {
			a.logger.Warn("workspace listing failed; admitting unconditionally",
				"root", a.workspace, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("workspace listing failed: %v", err))
			return
		}
		result.Warnings = append(result.Warnings, warnings...)
		a.listing = listing
	})
	return a.listing
}
