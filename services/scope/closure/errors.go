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

import "errors"

var (
	// ErrActiveFileUnreadable indicates the active file could not be read.
	// This is fatal for the run.
	ErrActiveFileUnreadable = errors.New("active file unreadable")

	// ErrWorkspaceUnreadable indicates the workspace root could not be
	// listed at all. Individual unreadable subdirectories are recovered
	// as warnings instead.
	ErrWorkspaceUnreadable = errors.New("workspace root unreadable")

	// ErrInvalidPattern indicates an exclude pattern failed to compile.
	ErrInvalidPattern = errors.New("invalid exclude pattern")
)
