package tracing

import (
	"context"
	"errors"

	"github.com/iwvelando/isolation-scheme/pkg/isolation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const schemeTracerName = "github.com/iwvelando/isolation-scheme/internal/server"

func SchemeTracer() trace.Tracer {
	return otel.Tracer(schemeTracerName)
}

func StartRequestSpan(ctx context.Context, route, requestID string) (context.Context, trace.Span) {
	return SchemeTracer().Start(ctx, "http "+route,
		trace.WithAttributes(
			attribute.String("http.route", route),
			attribute.String("request.id", requestID),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

func StartGenerateSpan(ctx context.Context, p isolation.GenerationParameters) (context.Context, trace.Span) {
	return SchemeTracer().Start(ctx, "scheme.generate",
		trace.WithAttributes(
			attribute.Float64("generate.start", p.Start),
			attribute.Float64("generate.end", p.End),
			attribute.Float64("generate.window_width", p.WindowWidth),
			attribute.Float64("generate.overlap", p.OverlapPercent),
			attribute.String("generate.margins", p.MarginMode.String()),
			attribute.Bool("generate.multiplexed", p.Multiplexed),
			attribute.Bool("generate.optimize", p.OptimizePlacement),
		),
	)
}

func StartValidateSpan(ctx context.Context, name string, rows int) (context.Context, trace.Span) {
	return SchemeTracer().Start(ctx, "scheme.validate",
		trace.WithAttributes(
			attribute.String("scheme.name", name),
			attribute.Int("scheme.rows", rows),
		),
	)
}

func StartBuildSpan(ctx context.Context, generations, schemes int) (context.Context, trace.Span) {
	return SchemeTracer().Start(ctx, "scheme.build",
		trace.WithAttributes(
			attribute.Int("build.generations", generations),
			attribute.Int("build.schemes", schemes),
		),
	)
}

func RecordGenerateResult(span trace.Span, windowCount int, err error) {
	span.SetAttributes(attribute.Int("generate.window_count", windowCount))
	RecordResult(span, err)
}

// RecordResult sets the span status from err. Scheme errors also record
// their kind and the offending window.
func RecordResult(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	var schemeErr *isolation.SchemeError
	if errors.As(err, &schemeErr) {
		span.SetAttributes(
			attribute.String("validation.kind", schemeErr.Kind.String()),
			attribute.Int("validation.index", schemeErr.Index),
		)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func RecordRequestResult(span trace.Span, status int) {
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status >= 500 {
		span.SetStatus(codes.Error, "server error")
	}
}
