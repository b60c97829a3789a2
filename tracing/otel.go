package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// OtelExporter mirrors a completed trace into a real OpenTelemetry span
// tree, routed through an otel/sdk TracerProvider backed by stdouttrace.
// This is an interop path for external collectors; the spec's own
// Trace/Span tree above remains the source of truth for in-process
// consumers (console/json/callback exporters).
type OtelExporter struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewOtelStdoutExporter builds an OtelExporter whose spans are written by
// stdouttrace, configured by opts (standard output unless opts set a
// writer).
func NewOtelStdoutExporter(opts ...stdouttrace.Option) (*OtelExporter, error) {
	exp, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	return &OtelExporter{
		provider: provider,
		tracer:   provider.Tracer("github.com/openlinkos/agent/tracing"),
	}, nil
}

// Export replays tr's spans as a real otel span tree rooted at a span
// named after the trace, preserving parent/child relationships and
// timestamps.
func (e *OtelExporter) Export(tr *Trace) error {
	ctx, root := e.tracer.Start(context.Background(), tr.Name, trace.WithTimestamp(msToTime(tr.StartMs)))
	setAttributes(root, tr.Attributes)

	spansByID := make(map[string]*Span, len(tr.Spans))
	for _, sp := range tr.Spans {
		spansByID[sp.ID] = sp
	}
	ctxByParent := map[string]context.Context{"": ctx}
	for _, sp := range tr.Spans {
		e.exportSpan(sp, tr.Spans, ctxByParent)
	}

	if tr.Status == StatusError {
		root.RecordError(errTraceFailed{name: tr.Name})
	}
	root.End(trace.WithTimestamp(msToTime(tr.EndMs)))
	return nil
}

func (e *OtelExporter) exportSpan(sp *Span, all []*Span, ctxByParent map[string]context.Context) context.Context {
	if ctx, ok := ctxByParent[sp.ID]; ok {
		return ctx
	}
	parentCtx, ok := ctxByParent[sp.ParentID]
	if !ok {
		parentCtx = ctxByParent[""]
	}
	ctx, span := e.tracer.Start(parentCtx, sp.Name, trace.WithTimestamp(msToTime(sp.StartMs)))
	setAttributes(span, sp.Attributes)
	for _, ev := range sp.Events {
		span.AddEvent(ev.Name, trace.WithTimestamp(msToTime(ev.TimestampMs)))
	}
	if sp.Status == StatusError {
		span.RecordError(errTraceFailed{name: sp.Name})
	}
	span.End(trace.WithTimestamp(msToTime(sp.EndMs)))
	ctxByParent[sp.ID] = ctx
	return ctx
}

func setAttributes(span trace.Span, attrs map[string]interface{}) {
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

type errTraceFailed struct{ name string }

func (e errTraceFailed) Error() string { return e.name + " ended with error status" }
