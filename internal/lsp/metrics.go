// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lsp

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// tracer/meter instrument every LSP operation and server spawn. Grounded
// on trace/lsp/metrics.go, renamed away from the teacher's
// "aleutian.lsp" instrumentation name.
var (
	tracer = otel.Tracer("lspd.lsp")
	meter  = otel.Meter("lspd.lsp")

	operationLatency metric.Float64Histogram
	operationTotal   metric.Int64Counter
	serverSpawns     metric.Int64Counter
	resultCount      metric.Int64Histogram

	metricsOnce sync.Once
)

func initMetrics() {
	metricsOnce.Do(func() {
		operationLatency, _ = meter.Float64Histogram(
			"lspd_lsp_operation_duration_seconds",
			metric.WithDescription("Duration of LSP operations"),
			metric.WithUnit("s"),
		)
		operationTotal, _ = meter.Int64Counter(
			"lspd_lsp_operation_total",
			metric.WithDescription("Count of LSP operations by result"),
		)
		serverSpawns, _ = meter.Int64Counter(
			"lspd_lsp_server_spawns_total",
			metric.WithDescription("Count of language server process spawns"),
		)
		resultCount, _ = meter.Int64Histogram(
			"lspd_lsp_result_count",
			metric.WithDescription("Number of results returned by list-shaped operations"),
		)
	})
}

func startOperationSpan(ctx context.Context, operation, language string) (context.Context, trace.Span, time.Time) {
	initMetrics()
	ctx, span := tracer.Start(ctx, "lsp."+operation,
		trace.WithAttributes(attribute.String("lsp.language", language)))
	return ctx, span, time.Now()
}

func setOperationSpanResult(ctx context.Context, span trace.Span, operation, language string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := []attribute.KeyValue{
		attribute.String("lsp.operation", operation),
		attribute.String("lsp.language", language),
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		attrs = append(attrs, attribute.String("lsp.result", "error"), attribute.String("lsp.error_kind", string(ClassifyError(err))))
	} else {
		attrs = append(attrs, attribute.String("lsp.result", "ok"))
	}
	span.End()

	operationLatency.Record(ctx, elapsed, metric.WithAttributes(attrs...))
	operationTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func recordOperationMetrics(ctx context.Context, operation, language string, n int) {
	resultCount.Record(ctx, int64(n), metric.WithAttributes(
		attribute.String("lsp.operation", operation),
		attribute.String("lsp.language", language),
	))
}

func recordServerSpawn(ctx context.Context, language string, ok bool) {
	initMetrics()
	result := "ok"
	if !ok {
		result = "error"
	}
	serverSpawns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("lsp.language", language),
		attribute.String("lsp.result", result),
	))
}
