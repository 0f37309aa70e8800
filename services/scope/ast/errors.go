// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"errors"
	"fmt"
)

// Sentinel errors for common parse failure conditions.
//
// These errors can be checked with errors.Is() to determine the category
// of failure without inspecting error messages.
var (
	// ErrUnsupportedLanguage indicates that no parser is registered for
	// the requested language or file extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrFileTooLarge indicates the content exceeds the parser's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates the content is not valid UTF-8 or is
	// otherwise unprocessable.
	ErrInvalidContent = errors.New("invalid content")

	// ErrParseFailed indicates parsing failed completely and no useful
	// result could be produced. Partial failures are reported in
	// ParseResult.Errors instead.
	ErrParseFailed = errors.New("parse failed")
)

// ParseError wraps an underlying error with location context.
type ParseError struct {
	// FilePath is the file where the error occurred.
	FilePath string

	// Line is the 1-indexed line, or 0 when unknown.
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying error. May be nil.
	Cause error
}

// Error returns "file:line: message" or "file: message" when no line is known.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
