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
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("filescope/graph")
	meter  = otel.Meter("filescope/graph")

	metricsOnce sync.Once

	nodeCounter     metric.Int64Histogram
	edgeCounter     metric.Int64Histogram
	sentinelCounter metric.Int64Counter
	depthCapCounter metric.Int64Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		var err error
		nodeCounter, err = meter.Int64Histogram("filescope_graph_nodes",
			metric.WithDescription("Nodes per expanded graph"))
		if err != nil {
			otel.Handle(err)
		}
		edgeCounter, err = meter.Int64Histogram("filescope_graph_edges",
			metric.WithDescription("Edges per expanded graph"))
		if err != nil {
			otel.Handle(err)
		}
		sentinelCounter, err = meter.Int64Counter("filescope_graph_sentinels_total",
			metric.WithDescription("Unresolved-call sentinel nodes created"))
		if err != nil {
			otel.Handle(err)
		}
		depthCapCounter, err = meter.Int64Counter("filescope_graph_depth_cap_hits_total",
			metric.WithDescription("Expansions stopped by the depth cap"))
		if err != nil {
			otel.Handle(err)
		}
	})
}

func recordExpansion(ctx context.Context, data *Data, sentinels, capHits int64) {
	initMetrics()
	attrs := metric.WithAttributes(attribute.String("stage", "expand"))
	if nodeCounter != nil {
		nodeCounter.Record(ctx, int64(len(data.Nodes)), attrs)
	}
	if edgeCounter != nil {
		edgeCounter.Record(ctx, int64(len(data.Edges)), attrs)
	}
	if sentinelCounter != nil && sentinels > 0 {
		sentinelCounter.Add(ctx, sentinels)
	}
	if depthCapCounter != nil && capHits > 0 {
		depthCapCounter.Add(ctx, capHits)
	}
}
