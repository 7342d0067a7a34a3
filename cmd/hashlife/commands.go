// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianLife/services/life/config"
	"github.com/AleutianAI/AleutianLife/services/life/telemetry"
)

const shutdownTimeout = 5 * time.Second

// app holds the state shared by every subcommand: global flags, the loaded
// configuration and the telemetry resources to release on exit.
type app struct {
	configPath    string
	logLevel      string
	metricsAddr   string
	traceExporter string

	cfg    config.HashlifeConfig
	logger *slog.Logger

	shutdownTelemetry func(context.Context) error
	metricsServer     *http.Server
}

func newApp() *app {
	return &app{logger: slog.Default()}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "hashlife",
		Short:             "Advance Game of Life patterns with memoized quadtrees",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.aleutian/hashlife.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	root.PersistentFlags().StringVar(&a.traceExporter, "trace-exporter", "", "trace exporter: otlp, stdout, none")

	root.AddCommand(a.runCmd(), a.verifyCmd(), a.benchCmd(), a.configCmd())
	return root
}

// setup loads the configuration and starts logging, telemetry and the
// optional metrics endpoint.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = def
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.traceExporter != "" {
		cfg.Telemetry.TraceExporter = a.traceExporter
	}
	if a.metricsAddr != "" {
		cfg.Telemetry.MetricExporter = "prometheus"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := telemetry.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = telemetry.NewLogger(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	slog.SetDefault(a.logger)

	telCfg := cfg.Telemetry
	telCfg.Writer = cmd.ErrOrStderr()
	shutdown, err := telemetry.Init(cmd.Context(), telCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.shutdownTelemetry = shutdown

	if a.metricsAddr != "" {
		if err := a.serveMetrics(); err != nil {
			return err
		}
	}

	a.logger.Debug("configuration loaded",
		slog.String("path", path),
		slog.String("rule", cfg.Rule),
		slog.Bool("inline", cfg.Adapter.Inline))
	return nil
}

func (a *app) serveMetrics() error {
	handler := telemetry.MetricsHandler()
	if handler == nil {
		handler = promhttp.Handler()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	ln, err := net.Listen("tcp", a.metricsAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.metricsAddr, err)
	}
	a.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	a.logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	return nil
}

// close flushes telemetry and stops the metrics endpoint.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown failed", slog.String("error", err.Error()))
		}
		a.metricsServer = nil
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
		a.shutdownTelemetry = nil
	}
}
