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
	"os"
)

// FileSystem abstracts file access for the closure builder. Production
// code uses OSFileSystem; tests substitute an in-memory map.
type FileSystem interface {
	// ReadFile returns the content of the file at path.
	ReadFile(path string) ([]byte, error)

	// Exists reports whether path names an existing regular file.
	Exists(path string) bool

	// IsDir reports whether path names an existing directory.
	IsDir(path string) bool
}

// OSFileSystem implements FileSystem over the operating system.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (OSFileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// MapFS is an in-memory FileSystem keyed by slash-separated paths.
// Intended for tests.
type MapFS map[string][]byte

func (m MapFS) ReadFile(path string) ([]byte, error) {
	content, ok := m[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return content, nil
}

func (m MapFS) Exists(path string) bool {
	_, ok := m[path]
	return ok
}

func (m MapFS) IsDir(path string) bool {
	if _, ok := m[path]; ok {
		return false
	}
	prefix := path + "/"
	for p := range m {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
