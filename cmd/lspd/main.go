// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command lspd runs the language server proxy daemon: it multiplexes a CLI
// client's requests over a Unix domain socket to a fleet of persistent
// language server subprocesses, one per (workspace root, language) pair.
//
// Usage:
//
//	go run ./cmd/lspd
//	go run ./cmd/lspd -socket /tmp/lspd-custom.sock -debug
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"golang.org/x/sys/unix"

	"github.com/andreasjansson/leta/internal/lsp"
	"github.com/andreasjansson/leta/internal/socketserver"
)

const shutdownDrain = 10 * time.Second

// ensureRuntimeDir creates the socket's parent directory with owner-only
// permissions (0700), using golang.org/x/sys/unix's raw Mkdir rather than
// os.MkdirAll so the directory is never briefly created with a looser
// mode before a subsequent os.Chmod narrows it.
func ensureRuntimeDir(socketPath string) error {
	dir := filepath.Dir(socketPath)
	if err := unix.Mkdir(dir, 0o700); err != nil && err != unix.EEXIST {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return unix.Chmod(dir, 0o700)
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "lspd", "lspd.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("lspd-%d", os.Getuid()), "lspd.sock")
}

func main() {
	socketPath := flag.String("socket", defaultSocketPath(), "Unix socket path to listen on")
	debug := flag.Bool("debug", false, "Enable debug-level logging")
	idleTimeout := flag.Duration("idle-timeout", 10*time.Minute, "Shut down a language server after this long with no requests")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdownTelemetry, err := initTelemetry(*debug)
	if err != nil {
		logger.Error("failed to initialize telemetry", "err", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(context.Background())

	if err := ensureRuntimeDir(*socketPath); err != nil {
		logger.Error("failed to prepare runtime directory", "err", err)
		os.Exit(1)
	}

	wsConfig := lsp.DefaultWorkspaceConfig()
	wsConfig.IdleTimeout = *idleTimeout
	session := lsp.NewSession(lsp.NewConfigRegistry(), wsConfig, logger)

	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer stop()

	shuttingDown := make(chan struct{})
	handlers := socketserver.NewHandlers(session, func() {
		close(shuttingDown)
	})

	srv := socketserver.NewServer(*socketPath, handlers, logger)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	logger.Info("lspd started", "socket", *socketPath)

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal, draining")
	case <-shuttingDown:
		logger.Info("shutdown requested over socket, draining")
	case err := <-serveErr:
		if err != nil {
			logger.Error("socket server exited", "err", err)
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
	defer cancel()
	if err := session.ShutdownAll(drainCtx); err != nil {
		logger.Warn("error shutting down language servers", "err", err)
	}
	srv.Close()
	<-serveErr

	logger.Info("lspd stopped")
}

// initTelemetry wires stdout trace and metric exporters, matching the
// teacher's services/orchestrator pattern of a resource-scoped provider
// installed via otel.Set*Provider, but emitting to stdout rather than an
// OTLP collector since the daemon has no sidecar to export to. Debug mode
// pretty-prints spans; otherwise only metrics are periodically flushed, to
// avoid spamming a CLI user's terminal with every textDocument/* span.
func initTelemetry(debug bool) (func(context.Context), error) {
	ctx := context.Background()
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String("lspd")))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	var traceOpts []stdouttrace.Option
	if !debug {
		traceOpts = append(traceOpts, stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	} else {
		traceOpts = append(traceOpts, stdouttrace.WithPrettyPrint())
	}
	traceExporter, err := stdouttrace.New(traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("build trace exporter: %w", err)
	}
	sampler := sdktrace.NeverSample()
	if debug {
		sampler = sdktrace.AlwaysSample()
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("build metric exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(time.Minute))),
	)
	otel.SetMeterProvider(meterProvider)

	return func(ctx context.Context) {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("trace provider shutdown failed", "err", err)
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("meter provider shutdown failed", "err", err)
		}
	}, nil
}
