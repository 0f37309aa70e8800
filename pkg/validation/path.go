// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for security-critical operations.
//
// The analysis server and CLI take file paths from untrusted input
// (request bodies, command arguments) and hand them to the filesystem.
// Validating here prevents path traversal out of the workspace and
// malformed paths reaching syscalls.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxPathLength bounds accepted paths. Longer paths are rejected
// before any filesystem access.
const MaxPathLength = 4096

// ValidatePath checks a user-supplied file path for use in analysis.
//
// Valid paths:
//   - non-empty, at most MaxPathLength bytes
//   - no NUL bytes
//   - no ".." segments after cleaning
//
// Absolute paths are allowed; use ValidateWithinRoot to additionally
// confine a path to a workspace root.
//
// Inputs:
//   - path: the path as received from the caller
//
// Outputs:
//   - error: non-nil with a description when the path is rejected
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("path exceeds %d bytes", MaxPathLength)
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains NUL byte")
	}
	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) ||
		strings.Contains(cleaned, string(filepath.Separator)+".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes its base directory: %q", path)
	}
	return nil
}

// ValidateWithinRoot checks that path, resolved against root, stays
// inside root. Both relative and absolute paths are accepted; an
// absolute path must already be under root.
//
// Inputs:
//   - root: workspace root directory (must be non-empty)
//   - path: user-supplied path, relative to root or absolute
//
// Outputs:
//   - string: the cleaned absolute path on success
//   - error: non-nil when the path is malformed or escapes root
func ValidateWithinRoot(root, path string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("root cannot be empty")
	}
	if err := ValidatePath(path); err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(absRoot, resolved)
	}
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(absRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside workspace root %q", path, root)
	}
	return resolved, nil
}
