// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package adapter

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/AleutianLife/services/life/engine"
)

var meter = otel.Meter("aleutian.life.adapter")

var (
	runsTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		runsTotal, metricsErr = meter.Int64Counter(
			"hashlife_adapter_runs_total",
			metric.WithDescription("Settled adapter runs by mode and outcome"),
		)
	})
	return metricsErr
}

// recordRun counts a settled run.
func recordRun(mode Mode, err error) {
	if initMetrics() != nil {
		return
	}
	runsTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("outcome", runOutcome(err)),
	))
}

func runOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, engine.ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrAlreadyRunning):
		return "busy"
	case errors.Is(err, ErrWorkerCrashed):
		return "crashed"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "error"
	}
}
