// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type NoopTracer struct {
	tracer trace.Tracer
}

func (t *NoopTracer) Start(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name)
}

func NewNoopTracer() *NoopTracer {
	return &NoopTracer{tracer: noop.NewTracerProvider().Tracer(tracerName)}
}
