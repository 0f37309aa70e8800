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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("filescope/ast")
	meter  = otel.Meter("filescope/ast")

	metricsOnce sync.Once

	parseCounter     metric.Int64Counter
	parseErrCounter  metric.Int64Counter
	parseDuration    metric.Float64Histogram
	declCounter      metric.Int64Counter
	cacheHitCounter  metric.Int64Counter
	cacheMissCounter metric.Int64Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		var err error
		parseCounter, err = meter.Int64Counter("filescope_parse_total",
			metric.WithDescription("Total files parsed"))
		if err != nil {
			otel.Handle(err)
		}
		parseErrCounter, err = meter.Int64Counter("filescope_parse_errors_total",
			metric.WithDescription("Total parse failures"))
		if err != nil {
			otel.Handle(err)
		}
		parseDuration, err = meter.Float64Histogram("filescope_parse_duration_ms",
			metric.WithDescription("Parse duration in milliseconds"),
			metric.WithUnit("ms"))
		if err != nil {
			otel.Handle(err)
		}
		declCounter, err = meter.Int64Counter("filescope_declarations_total",
			metric.WithDescription("Total declarations extracted"))
		if err != nil {
			otel.Handle(err)
		}
		cacheHitCounter, err = meter.Int64Counter("filescope_parse_cache_hits_total",
			metric.WithDescription("Parse cache hits"))
		if err != nil {
			otel.Handle(err)
		}
		cacheMissCounter, err = meter.Int64Counter("filescope_parse_cache_misses_total",
			metric.WithDescription("Parse cache misses"))
		if err != nil {
			otel.Handle(err)
		}
	})
}

func recordParse(ctx context.Context, language string, duration time.Duration, declCount int, err error) {
	initMetrics()
	attrs := metric.WithAttributes(attribute.String("language", language))
	if parseCounter != nil {
		parseCounter.Add(ctx, 1, attrs)
	}
	if parseDuration != nil {
		parseDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
	if err != nil && parseErrCounter != nil {
		parseErrCounter.Add(ctx, 1, attrs)
		return
	}
	if declCounter != nil {
		declCounter.Add(ctx, int64(declCount), attrs)
	}
}

func recordCacheHit(ctx context.Context, hit bool) {
	initMetrics()
	if hit {
		if cacheHitCounter != nil {
			cacheHitCounter.Add(ctx, 1)
		}
		return
	}
	if cacheMissCounter != nil {
		cacheMissCounter.Add(ctx, 1)
	}
}
