// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for engine operations.
var (
	tracer = otel.Tracer("aleutian.life.engine")
	meter  = otel.Meter("aleutian.life.engine")
)

// Metrics for Advance.
var (
	advanceLatency   metric.Float64Histogram
	advanceTotal     metric.Int64Counter
	generationsTotal metric.Int64Counter
	macroStepsTotal  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// Result table metrics. Scraped directly from the default registry.
var (
	memoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hashlife_result_lookups_total",
		Help: "Result table lookups by outcome",
	}, []string{"outcome"})

	internedNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hashlife_interned_nodes",
		Help: "Canonical nodes held by the most recently used engine",
	})

	memoizedResults = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hashlife_memoized_results",
		Help: "Result table entries held by the most recently used engine",
	})
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		advanceLatency, err = meter.Float64Histogram(
			"hashlife_advance_duration_seconds",
			metric.WithDescription("Duration of Advance calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		advanceTotal, err = meter.Int64Counter(
			"hashlife_advance_total",
			metric.WithDescription("Total number of Advance calls"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		generationsTotal, err = meter.Int64Counter(
			"hashlife_generations_total",
			metric.WithDescription("Generations applied, by method"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		macroStepsTotal, err = meter.Int64Counter(
			"hashlife_macro_steps_total",
			metric.WithDescription("Power-of-two steps applied by Advance"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordAdvanceMetrics records metrics for an Advance call.
func recordAdvanceMetrics(ctx context.Context, duration time.Duration, applied, macroSteps, bruteGenerations int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	advanceLatency.Record(ctx, duration.Seconds(), attrs)
	advanceTotal.Add(ctx, 1, attrs)
	macroStepsTotal.Add(ctx, int64(macroSteps))

	generationsTotal.Add(ctx, int64(applied-bruteGenerations),
		metric.WithAttributes(attribute.String("method", "hashlife")))
	generationsTotal.Add(ctx, int64(bruteGenerations),
		metric.WithAttributes(attribute.String("method", "brute_force")))
}

func recordMemoCounters(hits, misses int64) {
	memoLookups.WithLabelValues("hit").Add(float64(hits))
	memoLookups.WithLabelValues("miss").Add(float64(misses))
}

func recordTableSizes(nodes, results int) {
	internedNodes.Set(float64(nodes))
	memoizedResults.Set(float64(results))
}

// startAdvanceSpan creates a span for an Advance call.
func startAdvanceSpan(ctx context.Context, cellCount, generations int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Advance",
		trace.WithAttributes(
			attribute.Int("hashlife.cell_count", cellCount),
			attribute.Int("hashlife.generations", generations),
		),
	)
}

// setAdvanceSpanResult sets the result attributes on an Advance span.
func setAdvanceSpanResult(span trace.Span, out Outcome, macroSteps, bruteGenerations int, err error) {
	span.SetAttributes(
		attribute.Int("hashlife.applied", out.Generations),
		attribute.Int("hashlife.result_cells", len(out.Cells)),
		attribute.Int("hashlife.macro_steps", macroSteps),
		attribute.Int("hashlife.brute_generations", bruteGenerations),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
