// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scope

import "errors"

var (
	// ErrNoInput indicates the active file could not be read. Fatal,
	// surfaced to the caller.
	ErrNoInput = errors.New("active file cannot be read")

	// ErrUnsupportedFile indicates the active file is not a recognized
	// source file type. Fatal, surfaced to the caller.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
