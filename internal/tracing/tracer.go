// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"context"

	jaegerPropagator "go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "catalog-service"

var _ TracingInterface = (*Tracer)(nil)

type Tracer struct {
	tracer trace.Tracer
}

func (t *Tracer) Start(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name)
}

// NewTracer sets up the global otel tracer provider and propagators and
// returns the tracer handle used across the application.
func NewTracer(c *Config) *Tracer {
	t := new(Tracer)

	if !c.Enabled {
		t.tracer = noop.NewTracerProvider().Tracer(tracerName)
		return t
	}

	exporter, err := newExporter(c)
	if err != nil {
		c.Logger.Errorf("failed to create span exporter: %v, falling back to noop tracer", err)
		t.tracer = noop.NewTracerProvider().Tracer(tracerName)
		return t
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
			jaegerPropagator.Jaeger{},
		),
	)

	t.tracer = provider.Tracer(tracerName)

	return t
}

func newExporter(c *Config) (sdktrace.SpanExporter, error) {
	ctx := context.Background()

	switch {
	case c.OtelGRPCEndpoint != "":
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(c.OtelGRPCEndpoint),
			otlptracegrpc.WithInsecure(),
		))
	case c.OtelHTTPEndpoint != "":
		return otlptrace.New(ctx, otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(c.OtelHTTPEndpoint),
			otlptracehttp.WithInsecure(),
		))
	default:
		return stdouttrace.New()
	}
}
