// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-runs analysis whenever watched source files change.
// Every trigger recomputes from scratch; only the parse cache carries
// over, keyed by content hash, so unchanged files stay cheap.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/filescope/services/scope"
)

// skipDirs are directory names never watched.
var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"dist":         {},
	"build":        {},
}

// Handler receives each completed analysis, or the error it failed with.
type Handler func(result *scope.Result, err error)

// Watcher re-analyzes an active file on workspace changes.
type Watcher struct {
	analyzer *scope.Analyzer
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher around an analyzer.
func New(analyzer *scope.Analyzer, debounce time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		analyzer: analyzer,
		debounce: debounce,
		logger:   logger.With("component", "watch"),
	}
}

// Run watches the workspace root and re-analyzes the active file on
// changes, until the context is cancelled.
//
// Description:
//
//	One analysis runs immediately on startup. Change events within the
//	debounce window coalesce into a single re-run. Changed files are
//	invalidated in the parse cache before the re-run. Newly created
//	directories are added to the watch set.
//
// Outputs:
//   - error: Watcher setup failure; nil on context cancellation
func (w *Watcher) Run(ctx context.Context, root, activeFile string, handler Handler) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := addRecursive(fsWatcher, root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	w.logger.Info("watching", "root", root, "active_file", activeFile)

	w.analyzeOnce(ctx, activeFile, handler)

	var timer *time.Timer
	var timerCh <-chan time.Time
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories must join the watch set.
				if err := addRecursive(fsWatcher, event.Name); err != nil {
					w.logger.Debug("watch add failed", "path", event.Name, "error", err)
				}
			}
			if !relevant(event) {
				continue
			}
			pending[filepath.ToSlash(event.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			for path := range pending {
				w.analyzer.InvalidateFile(path)
			}
			w.logger.Debug("changes detected", "files", len(pending))
			pending = make(map[string]struct{})
			w.analyzeOnce(ctx, activeFile, handler)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) analyzeOnce(ctx context.Context, activeFile string, handler Handler) {
	result, err := w.analyzer.Analyze(ctx, activeFile)
	if err != nil && ctx.Err() != nil {
		return
	}
	handler(result, err)
}

// relevant filters events down to source-file writes, creates, renames,
// and removals.
func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(event.Name) {
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		return true
	}
	return false
}

// addRecursive adds path and every directory under it to the watcher.
// Non-directories and skip-listed directories are ignored.
func addRecursive(fsWatcher *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := skipDirs[d.Name()]; skip {
			return filepath.SkipDir
		}
		return fsWatcher.Add(p)
	})
}
