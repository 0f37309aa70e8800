// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package closure

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// Listing is the set of files known to belong to a workspace. The
// admission policy consults it to distinguish first-party files from
// external dependencies.
//
// Thread Safety: read-only after construction.
type Listing struct {
	root  string
	files map[string]struct{}
}

// NewListing builds a Listing from an explicit file set. Paths are
// normalized to slash form. Used by tests and by callers that already
// hold a file enumeration from elsewhere.
func NewListing(root string, files []string) *Listing {
	l := &Listing{root: root, files: make(map[string]struct{}, len(files))}
	for _, f := range files {
		l.files[filepath.ToSlash(f)] = struct{}{}
	}
	return l
}

// Root returns the workspace root path.
func (l *Listing) Root() string { return l.root }

// Contains reports whether the path is part of the workspace listing.
func (l *Listing) Contains(path string) bool {
	_, ok := l.files[filepath.ToSlash(path)]
	return ok
}

// Len returns the number of listed files.
func (l *Listing) Len() int { return len(l.files) }

// ListWorkspace walks the workspace root and returns its file listing.
//
// Description:
//
//	The walk honors a root-level .gitignore when present and skips any
//	path matching one of the exclude globs. The .git directory is always
//	skipped. An unreadable subdirectory is recovered locally: the subtree
//	is skipped and a warning recorded, the walk continues elsewhere.
//
// Inputs:
//   - root: Workspace root directory
//   - excludes: Glob patterns (gobwas syntax) matched against
//     slash-separated paths relative to root
//   - logger: Destination for walk diagnostics
//
// Outputs:
//   - *Listing: The workspace file listing
//   - []string: Warnings for skipped subtrees
//   - error: ErrWorkspaceUnreadable or ErrInvalidPattern
func ListWorkspace(root string, excludes []string, logger *slog.Logger) (*Listing, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	globs := make([]glob.Glob, 0, len(excludes))
	for _, pattern := range excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
		}
		globs = append(globs, g)
	}

	var matcher *ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		matcher = gi
	}

	listing := &Listing{root: root, files: make(map[string]struct{})}
	var warnings []string

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			warnings = append(warnings, fmt.Sprintf("skipping unreadable path %s: %v", path, err))
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel) {
				return filepath.SkipDir
			}
			for _, g := range globs {
				if g.Match(rel) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		for _, g := range globs {
			if g.Match(rel) {
				return nil
			}
		}

		listing.files[filepath.ToSlash(path)] = struct{}{}
		return nil
	})
	if walkErr != nil {
		return nil, warnings, fmt.Errorf("%w: %s: %v", ErrWorkspaceUnreadable, root, walkErr)
	}

	logger.Debug("workspace listed", "root", root, "files", listing.Len())
	return listing, warnings, nil
}

// relTo returns path relative to root in slash form, or the path itself
// when it does not sit under root.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
