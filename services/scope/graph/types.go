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

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeKind classifies graph nodes.
type NodeKind string

const (
	NodeKindFile     NodeKind = "file"
	NodeKindFunction NodeKind = "function"
	NodeKindClass    NodeKind = "class"
	NodeKindVariable NodeKind = "variable"
)

// EdgeKind classifies graph edges.
type EdgeKind string

const (
	EdgeKindImport   EdgeKind = "import"
	EdgeKindContains EdgeKind = "contains"
	EdgeKindCalls    EdgeKind = "calls"
	EdgeKindExtends  EdgeKind = "extends"
)

// UnknownFilePath is the file path recorded on sentinel nodes for calls
// whose target could not be resolved anywhere in the closure.
const UnknownFilePath = "unknown"

// Node is a single graph node. The ID is globally unique within one
// analysis result and doubles as the dedup key.
type Node struct {
	// ID formats: "file:<path>", "function:<path>:<name>",
	// "function:<path>:<Class>.<method>", "class:<path>:<name>",
	// "variable:<path>:<name>", and the sentinel "function:unknown:<name>".
	ID string `json:"id"`

	Kind NodeKind `json:"kind"`

	// Label is the display name: the base file name for file nodes, the
	// declaration name otherwise.
	Label string `json:"label"`

	// FilePath is the owning file, or UnknownFilePath for sentinels.
	FilePath string `json:"file_path"`

	// StartLine and StartCol locate the declaration for navigation.
	// Zero for file and sentinel nodes.
	StartLine int `json:"start_line,omitempty"`
	StartCol  int `json:"start_col,omitempty"`

	// IsActiveFile marks the file node the analysis started from.
	IsActiveFile bool `json:"is_active_file,omitempty"`

	// IsExternal marks sentinel nodes. They are never expanded.
	IsExternal bool `json:"is_external,omitempty"`
}

// Edge is a directed edge between two node IDs.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

type edgeKey struct {
	source, target string
	kind           EdgeKind
}

// Data is the nodes/edges structure returned to the caller. Nodes and
// edges keep insertion order, which makes serialized output
// deterministic for a fixed traversal.
//
// Thread Safety: not safe for concurrent mutation. Each analysis run
// owns its own Data.
type Data struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	nodeIndex map[string]*Node
	edgeIndex map[edgeKey]struct{}
}

// NewData creates an empty graph.
func NewData() *Data {
	return &Data{
		Nodes:     []*Node{},
		Edges:     []*Edge{},
		nodeIndex: make(map[string]*Node),
		edgeIndex: make(map[edgeKey]struct{}),
	}
}

// AddNode inserts a node if its ID is not present yet.
//
// Outputs:
//   - bool: True when the node was inserted, false when it already existed
func (d *Data) AddNode(node *Node) bool {
	if _, exists := d.nodeIndex[node.ID]; exists {
		return false
	}
	d.nodeIndex[node.ID] = node
	d.Nodes = append(d.Nodes, node)
	return true
}

// AddEdge inserts an edge if the (source, target, kind) triple is not
// present yet. Endpoints may be added after the edge; callers guarantee
// both exist before the result is returned.
func (d *Data) AddEdge(source, target string, kind EdgeKind) bool {
	key := edgeKey{source: source, target: target, kind: kind}
	if _, exists := d.edgeIndex[key]; exists {
		return false
	}
	d.edgeIndex[key] = struct{}{}
	d.Edges = append(d.Edges, &Edge{Source: source, Target: target, Kind: kind})
	return true
}

// HasNode reports whether a node with the ID exists.
func (d *Data) HasNode(id string) bool {
	_, ok := d.nodeIndex[id]
	return ok
}

// Node returns the node with the given ID, or nil.
func (d *Data) Node(id string) *Node {
	return d.nodeIndex[id]
}

// Validate checks that every edge endpoint has a corresponding node.
func (d *Data) Validate() error {
	for _, e := range d.Edges {
		if !d.HasNode(e.Source) {
			return fmt.Errorf("edge %s -[%s]-> %s: missing source node", e.Source, e.Kind, e.Target)
		}
		if !d.HasNode(e.Target) {
			return fmt.Errorf("edge %s -[%s]-> %s: missing target node", e.Source, e.Kind, e.Target)
		}
	}
	return nil
}

// Stats summarizes a graph for logging and the stats endpoint.
type Stats struct {
	Nodes         int              `json:"nodes"`
	Edges         int              `json:"edges"`
	NodesByKind   map[NodeKind]int `json:"nodes_by_kind"`
	EdgesByKind   map[EdgeKind]int `json:"edges_by_kind"`
	ExternalNodes int              `json:"external_nodes"`
}

// Stats computes summary counts.
func (d *Data) Stats() Stats {
	s := Stats{
		Nodes:       len(d.Nodes),
		Edges:       len(d.Edges),
		NodesByKind: make(map[NodeKind]int),
		EdgesByKind: make(map[EdgeKind]int),
	}
	for _, n := range d.Nodes {
		s.NodesByKind[n.Kind]++
		if n.IsExternal {
			s.ExternalNodes++
		}
	}
	for _, e := range d.Edges {
		s.EdgesByKind[e.Kind]++
	}
	return s
}

// UnmarshalJSON restores a Data from its wire form, rebuilding the
// internal indexes.
func (d *Data) UnmarshalJSON(raw []byte) error {
	var wire struct {
		Nodes []*Node `json:"nodes"`
		Edges []*Edge `json:"edges"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	*d = *NewData()
	for _, n := range wire.Nodes {
		d.AddNode(n)
	}
	for _, e := range wire.Edges {
		d.AddEdge(e.Source, e.Target, e.Kind)
	}
	return nil
}

// FileID returns the node ID for a file path.
func FileID(path string) string {
	return "file:" + path
}

// SentinelID returns the sentinel node ID for an unresolved call target.
func SentinelID(name string) string {
	return fmt.Sprintf("function:%s:%s", UnknownFilePath, name)
}

// IsSentinel reports whether the ID names an unresolved-call sentinel.
func IsSentinel(id string) bool {
	return strings.HasPrefix(id, "function:"+UnknownFilePath+":")
}

// SentinelName extracts the called name from a sentinel ID.
func SentinelName(id string) string {
	return strings.TrimPrefix(id, "function:"+UnknownFilePath+":")
}
