// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides OpenTelemetry-based observability and
// structured logging for the Hashlife tools.
//
// Be opinionated about the API, flexible about the backend. The engine and
// adapter packages use otel.Tracer and otel.Meter directly; Init decides
// where their spans and measurements go.
//
// # Exporters
//
//   - Traces: "otlp" (gRPC), "stdout", or "none" (default).
//   - Metrics: "prometheus", "stdout", or "none" (default). With
//     "prometheus", MetricsHandler serves the default registry, which also
//     carries the engine's result table counters.
//
// Stdout exporters write to Config.Writer (stderr by default) so they never
// mix with command output.
//
// # Logging
//
// NewLogger builds the process logger: text for terminals, JSON otherwise.
// LoggerWithTrace adds trace_id and span_id for correlation.
//
// # Usage
//
//	shutdown, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
//
// # Environment Variables
//
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none
//   - HASHLIFE_ENV: environment name (default: development)
package telemetry
