// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

// CallMap maps declaration IDs to their ordered, deduplicated call
// targets. It is rebuilt completely on each analysis run, owned by that
// run, and discarded once the expander has consumed it.
//
// Target order is insertion order; combined with a deterministic
// collection pass this keeps expansion output stable.
type CallMap struct {
	targets map[string][]string
	seen    map[string]map[string]struct{}
}

// NewCallMap creates an empty call map.
func NewCallMap() *CallMap {
	return &CallMap{
		targets: make(map[string][]string),
		seen:    make(map[string]map[string]struct{}),
	}
}

// Register ensures the declaration has an entry. A declaration with an
// empty body keeps an empty target list rather than being absent.
func (m *CallMap) Register(declID string) {
	if _, ok := m.targets[declID]; !ok {
		m.targets[declID] = []string{}
		m.seen[declID] = make(map[string]struct{})
	}
}

// Add records a call target for a declaration, ignoring duplicates.
func (m *CallMap) Add(declID, targetID string) {
	m.Register(declID)
	if _, dup := m.seen[declID][targetID]; dup {
		return
	}
	m.seen[declID][targetID] = struct{}{}
	m.targets[declID] = append(m.targets[declID], targetID)
}

// Targets returns the call targets of a declaration in insertion order.
// Nil for unregistered declarations.
func (m *CallMap) Targets(declID string) []string {
	return m.targets[declID]
}

// Has reports whether the declaration is registered.
func (m *CallMap) Has(declID string) bool {
	_, ok := m.targets[declID]
	return ok
}

// Len returns the number of registered declarations.
func (m *CallMap) Len() int {
	return len(m.targets)
}
