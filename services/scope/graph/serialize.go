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
	"fmt"
	"strings"
)

// nodeShapes maps node kinds to Graphviz shapes.
var nodeShapes = map[NodeKind]string{
	NodeKindFile:     "folder",
	NodeKindFunction: "ellipse",
	NodeKindClass:    "box",
	NodeKindVariable: "diamond",
}

// edgeStyles maps edge kinds to Graphviz styles.
var edgeStyles = map[EdgeKind]string{
	EdgeKindImport:   "dashed",
	EdgeKindContains: "dotted",
	EdgeKindCalls:    "solid",
	EdgeKindExtends:  "bold",
}

// DOT renders the graph in Graphviz DOT format. Output order follows
// node/edge insertion order, so a fixed graph renders identically every
// time.
func (d *Data) DOT() string {
	var b strings.Builder
	b.WriteString("digraph filescope {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n\n")

	for _, n := range d.Nodes {
		attrs := []string{
			fmt.Sprintf("label=%q", n.Label),
			fmt.Sprintf("shape=%s", nodeShapes[n.Kind]),
		}
		if n.IsExternal {
			attrs = append(attrs, "style=dashed", "color=gray")
		}
		fmt.Fprintf(&b, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}
	b.WriteString("\n")
	for _, e := range d.Edges {
		fmt.Fprintf(&b, "  %q -> %q [style=%s, label=%q];\n",
			e.Source, e.Target, edgeStyles[e.Kind], string(e.Kind))
	}
	b.WriteString("}\n")
	return b.String()
}
