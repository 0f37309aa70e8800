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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of parse results kept in memory.
const DefaultCacheSize = 512

// CachingParser wraps a Registry with an LRU cache of parse results,
// keyed by file path and validated by content hash. Watch mode reparses
// the same closure on every change; only the changed files miss.
//
// Thread Safety: safe for concurrent use.
type CachingParser struct {
	registry *Registry
	cache    *lru.Cache[string, *ParseResult]
}

// NewCachingParser creates a caching parser over the given registry.
//
// Inputs:
//   - registry: Parser registry to delegate to
//   - size: Max cached results; <= 0 uses DefaultCacheSize
func NewCachingParser(registry *Registry, size int) (*CachingParser, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *ParseResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating parse cache: %w", err)
	}
	return &CachingParser{registry: registry, cache: cache}, nil
}

// Parse returns a cached result when the content hash matches, otherwise
// parses through the registry and caches the result.
//
// Outputs:
//   - *ParseResult: Cached or freshly parsed result
//   - error: Registry lookup or parse failure
func (c *CachingParser) Parse(ctx context.Context, filePath string, content []byte) (*ParseResult, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	if cached, ok := c.cache.Get(filePath); ok && cached.Hash == hash {
		recordCacheHit(ctx, true)
		return cached, nil
	}
	recordCacheHit(ctx, false)

	parser, err := c.registry.ForFile(filePath)
	if err != nil {
		return nil, err
	}
	result, err := parser.Parse(ctx, filePath, content)
	if err != nil {
		return nil, err
	}
	result.Hash = hash
	c.cache.Add(filePath, result)
	return result, nil
}

// Supports reports whether the underlying registry can parse the file.
func (c *CachingParser) Supports(filePath string) bool {
	return c.registry.Supports(filePath)
}

// Languages returns the underlying registry's language identifiers.
func (c *CachingParser) Languages() []string {
	return c.registry.Languages()
}

// Invalidate drops the cached result for a file path.
func (c *CachingParser) Invalidate(filePath string) {
	c.cache.Remove(filePath)
}

// Purge drops all cached results.
func (c *CachingParser) Purge() {
	c.cache.Purge()
}
