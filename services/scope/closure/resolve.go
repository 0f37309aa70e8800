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
	"path"
	"path/filepath"
	"strings"
)

// probeExtensions is the ordered extension list tried during import
// resolution. TypeScript first: in mixed repos a .ts file and its
// compiled .js sibling can coexist, and the source wins.
var probeExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// ResolveImport resolves a relative import specifier to a concrete file.
//
// Description:
//
//	Deterministic, pure given the existence probe. The specifier is
//	joined against the importing file's directory, then probed in order:
//	the exact path, the path with each known extension appended, then
//	index.<ext> inside the path treated as a directory. The first
//	existing file wins.
//
// Inputs:
//   - fromFile: The importing file's path
//   - specifier: The module path as written in the import
//   - fsys: Existence probe
//
// Outputs:
//   - string: The resolved file path, slash-separated
//   - bool: False when the specifier is non-relative or nothing exists.
//     Non-relative specifiers are opaque external references and are
//     never resolved.
func ResolveImport(fromFile, specifier string, fsys FileSystem) (string, bool) {
	if !isRelative(specifier) {
		return "", false
	}

	base := path.Join(path.Dir(filepath.ToSlash(fromFile)), specifier)

	if fsys.Exists(base) {
		return base, true
	}
	for _, ext := range probeExtensions {
		if candidate := base + ext; fsys.Exists(candidate) {
			return candidate, true
		}
	}
	if fsys.IsDir(base) {
		for _, ext := range probeExtensions {
			if candidate := path.Join(base, "index"+ext); fsys.Exists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// isRelative reports whether the specifier starts with a dot segment.
// The bare "." and ".." forms are directory-index imports and count.
func isRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}
