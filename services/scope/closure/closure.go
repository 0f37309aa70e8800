// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package closure computes the bounded set of files reachable from an
// active file through its import graph. The set feeds the shared parse
// context for declaration collection and call resolution.
package closure

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/filescope/services/scope/ast"
)

var (
	tracer = otel.Tracer("filescope/closure")
	meter  = otel.Meter("filescope/closure")

	metricsOnce  sync.Once
	closureSize  metric.Int64Histogram
	buildLatency metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		var err error
		closureSize, err = meter.Int64Histogram("filescope_closure_files",
			metric.WithDescription("Files admitted per closure build"))
		if err != nil {
			otel.Handle(err)
		}
		buildLatency, err = meter.Float64Histogram("filescope_closure_build_duration_ms",
			metric.WithDescription("Closure build duration in milliseconds"),
			metric.WithUnit("ms"))
		if err != nil {
			otel.Handle(err)
		}
	})
}

// Admission policy bounds. These keep traversal from exploding into deep
// external dependency trees while still admitting a few layers of local
// libraries.
const (
	// DefaultMaxPathLength admits files whose full path stays under this
	// length when they are neither listed nor under a library marker.
	DefaultMaxPathLength = 200

	// DefaultLibraryMarker is the directory name identifying external
	// dependency trees.
	DefaultLibraryMarker = "node_modules"

	// DefaultMaxSegmentsPastMarker is how many path segments past the
	// library marker a dependency file may sit and still be admitted.
	DefaultMaxSegmentsPastMarker = 4
)

// SourceParser extracts imports from source files. *ast.CachingParser
// satisfies it.
type SourceParser interface {
	Parse(ctx context.Context, filePath string, content []byte) (*ast.ParseResult, error)
	Supports(filePath string) bool
}

// Closure is the result of a build: the admitted file set and the
// diagnostics accumulated while computing it.
type Closure struct {
	// ActiveFile is the file the build started from.
	ActiveFile string

	// Files holds every admitted file in breadth-first discovery order,
	// the active file first.
	Files []string

	// Skipped lists files that were resolved but rejected by the
	// admission policy.
	Skipped []string

	// Warnings records non-fatal conditions (unreadable files, parse
	// failures on dependency files).
	Warnings []string
}

// Contains reports whether the closure admitted the given file.
func (c *Closure) Contains(path string) bool {
	path = filepath.ToSlash(path)
	for _, f := range c.Files {
		if f == path {
			return true
		}
	}
	return false
}

// Builder computes file closures.
//
// Thread Safety: safe for concurrent use; each Build call owns its own
// frontier and processed set.
type Builder struct {
	fsys    FileSystem
	parser  SourceParser
	logger  *slog.Logger
	listing *Listing

	maxPathLength int
	libraryMarker string
	maxPastMarker int
}

// Option configures a Builder.
type Option func(*Builder)

// WithListing supplies the workspace file listing. Without one the
// admission policy admits every resolved import unconditionally.
func WithListing(listing *Listing) Option {
	return func(b *Builder) { b.listing = listing }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithMaxPathLength overrides the path-length admission bound.
func WithMaxPathLength(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxPathLength = n
		}
	}
}

// WithLibraryMarker overrides the library directory marker.
func WithLibraryMarker(marker string) Option {
	return func(b *Builder) {
		if marker != "" {
			b.libraryMarker = marker
		}
	}
}

// WithMaxSegmentsPastMarker overrides the dependency depth bound.
func WithMaxSegmentsPastMarker(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxPastMarker = n
		}
	}
}

// NewBuilder creates a closure builder.
func NewBuilder(fsys FileSystem, parser SourceParser, opts ...Option) *Builder {
	b := &Builder{
		fsys:          fsys,
		parser:        parser,
		logger:        slog.Default().With("component", "closure"),
		maxPathLength: DefaultMaxPathLength,
		libraryMarker: DefaultLibraryMarker,
		maxPastMarker: DefaultMaxSegmentsPastMarker,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build computes the closure of the active file.
//
// Description:
//
//	Breadth-first traversal from the active file. Each popped file is
//	parsed far enough to extract imports; each relative import is
//	resolved to a concrete file and admitted onto the frontier only if
//	it passes the admission policy. A processed set prevents revisits.
//
// Inputs:
//   - ctx: Context for cancellation
//   - activeFile: Path of the file to start from
//
// Outputs:
//   - *Closure: The admitted file set in discovery order
//   - error: ErrActiveFileUnreadable, or context cancellation
func (b *Builder) Build(ctx context.Context, activeFile string) (*Closure, error) {
	ctx, span := tracer.Start(ctx, "closure.Build", trace.WithAttributes(
		attribute.String("active_file", activeFile),
	))
	defer span.End()
	start := time.Now()

	activeFile = filepath.ToSlash(activeFile)
	result := &Closure{ActiveFile: activeFile}

	if _, err := b.fsys.ReadFile(activeFile); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrActiveFileUnreadable, activeFile, err)
	}

	frontier := []string{activeFile}
	processed := map[string]struct{}{activeFile: {}}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := frontier[0]
		frontier = frontier[1:]
		result.Files = append(result.Files, current)

		content, err := b.fsys.ReadFile(current)
		if err != nil {
			// The active file was checked up front, so this is always a
			// dependency file disappearing mid-walk.
			result.Warnings = append(result.Warnings, fmt.Sprintf("unreadable: %s", current))
			continue
		}

		if !b.parser.Supports(current) {
			continue
		}
		parsed, err := b.parser.Parse(ctx, current, content)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("parse failed: %s: %v", current, err))
			continue
		}

		for _, imp := range parsed.Imports {
			resolved, ok := ResolveImport(current, imp.Path, b.fsys)
			if !ok {
				// Unresolved imports are not errors: no edge, no admission.
				continue
			}
			if _, seen := processed[resolved]; seen {
				continue
			}
			processed[resolved] = struct{}{}

			if !b.admit(resolved) {
				result.Skipped = append(result.Skipped, resolved)
				b.logger.Debug("import rejected by admission policy",
					"file", resolved, "imported_by", current)
				continue
			}
			frontier = append(frontier, resolved)
		}
	}

	initMetrics()
	if closureSize != nil {
		closureSize.Record(ctx, int64(len(result.Files)))
	}
	if buildLatency != nil {
		buildLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	span.SetAttributes(attribute.Int("closure.files", len(result.Files)))

	b.logger.Debug("closure built",
		"active_file", relTo(b.root(), activeFile),
		"files", len(result.Files),
		"skipped", len(result.Skipped),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// admit applies the admission policy to a resolved import path.
//
// With no workspace listing every file is admitted. Listed files are
// always admitted. Files under the library marker are admitted only
// within the segment bound, regardless of path length; the marker bound
// governs external trees so short dependency paths cannot sneak past it.
// Everything else is admitted while the path stays short.
func (b *Builder) admit(path string) bool {
	if b.listing == nil {
		return true
	}
	if b.listing.Contains(path) {
		return true
	}
	if segments, under := segmentsPastMarker(path, b.libraryMarker); under {
		return segments <= b.maxPastMarker
	}
	return len(path) < b.maxPathLength
}

func (b *Builder) root() string {
	if b.listing != nil {
		return b.listing.Root()
	}
	return ""
}

// segmentsPastMarker returns how many path segments follow the last
// occurrence of the marker directory, and whether the marker is present
// at all. The file name counts as a segment.
func segmentsPastMarker(path, marker string) (int, bool) {
	segments := strings.Split(filepath.ToSlash(path), "/")
	last := -1
	for i, seg := range segments {
		if seg == marker {
			last = i
		}
	}
	if last == -1 {
		return 0, false
	}
	return len(segments) - last - 1, true
}
