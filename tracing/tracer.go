// Package tracing implements the trace/span tree: startTrace/startSpan with
// idempotent end calls, and pluggable exporters (console, JSON, callback).
// Span and trace identifiers are generated with google/uuid; the console
// exporter's timing/writer conventions follow the teacher's observability
// package, and traces can additionally be mirrored into a real
// go.opentelemetry.io/otel span tree for interop with external collectors.
package tracing

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the terminal or in-flight state of a trace or span.
type Status string

const (
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	StatusError   Status = "error"
)

// Event is a point-in-time annotation attached to a span.
type Event struct {
	Name        string
	TimestampMs int64
	Attributes  map[string]interface{}
}

// Span is one unit of work within a trace.
type Span struct {
	ID         string
	TraceID    string
	ParentID   string
	Name       string
	StartMs    int64
	EndMs      int64
	Status     Status
	Attributes map[string]interface{}
	Events     []Event

	mu    sync.Mutex
	ended bool
}

// Trace is a named root of work containing a flat list of spans.
type Trace struct {
	ID         string
	Name       string
	StartMs    int64
	EndMs      int64
	Status     Status
	Attributes map[string]interface{}
	Spans      []*Span

	mu    sync.Mutex
	ended bool
}

// Exporter receives completed traces when endTrace is called.
type Exporter interface {
	Export(trace *Trace) error
}

// Tracer owns the set of active traces and dispatches completed traces to
// its exporters.
type Tracer struct {
	mu          sync.Mutex
	traces      map[string]*Trace
	exporters   []Exporter
	onExportErr func(err error)
	now         func() time.Time
}

// Option configures a Tracer at construction time.
type Option func(*Tracer)

// WithExporters registers one or more exporters, invoked in order on
// endTrace.
func WithExporters(exporters ...Exporter) Option {
	return func(t *Tracer) { t.exporters = append(t.exporters, exporters...) }
}

// WithExportErrorHandler overrides how exporter errors are reported; by
// default they are swallowed (exporter errors never propagate to the
// caller of endTrace).
func WithExportErrorHandler(handler func(err error)) Option {
	return func(t *Tracer) { t.onExportErr = handler }
}

// NewTracer constructs a Tracer with the given options.
func NewTracer(opts ...Option) *Tracer {
	t := &Tracer{
		traces: make(map[string]*Trace),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.onExportErr == nil {
		t.onExportErr = func(err error) {}
	}
	return t
}

func (t *Tracer) nowMs() int64 {
	return t.now().UnixMilli()
}

// StartTrace begins a new trace and returns it.
func (t *Tracer) StartTrace(name string, attrs map[string]interface{}) *Trace {
	tr := &Trace{
		ID:         uuid.NewString(),
		Name:       name,
		StartMs:    t.nowMs(),
		Status:     StatusRunning,
		Attributes: attrs,
	}
	t.mu.Lock()
	t.traces[tr.ID] = tr
	t.mu.Unlock()
	return tr
}

// StartSpan pushes a new span onto the trace identified by traceID. Returns
// nil if the trace is unknown.
func (t *Tracer) StartSpan(traceID, name, parentID string, attrs map[string]interface{}) *Span {
	t.mu.Lock()
	tr, ok := t.traces[traceID]
	t.mu.Unlock()
	if !ok {
		return nil
	}

	sp := &Span{
		ID:         uuid.NewString(),
		TraceID:    traceID,
		ParentID:   parentID,
		Name:       name,
		StartMs:    t.nowMs(),
		Status:     StatusRunning,
		Attributes: attrs,
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.ended {
		return sp
	}
	tr.Spans = append(tr.Spans, sp)
	return sp
}

// AddEvent appends an event to span unless it has already ended.
func (t *Tracer) AddEvent(span *Span, name string, attrs map[string]interface{}) {
	if span == nil {
		return
	}
	span.mu.Lock()
	defer span.mu.Unlock()
	if span.ended {
		return
	}
	span.Events = append(span.Events, Event{Name: name, TimestampMs: t.nowMs(), Attributes: attrs})
}

// EndSpan marks span as finished with status. Idempotent: calls after the
// first are silently dropped.
func (t *Tracer) EndSpan(span *Span, status Status) {
	if span == nil {
		return
	}
	span.mu.Lock()
	defer span.mu.Unlock()
	if span.ended {
		return
	}
	span.ended = true
	span.EndMs = t.nowMs()
	span.Status = status
}

// EndTrace marks the trace finished, then invokes every exporter in order.
// Exporter errors are reported via the configured error handler and never
// re-raised. Idempotent.
func (t *Tracer) EndTrace(tr *Trace, status Status) {
	if tr == nil {
		return
	}
	tr.mu.Lock()
	if tr.ended {
		tr.mu.Unlock()
		return
	}
	tr.ended = true
	tr.EndMs = t.nowMs()
	tr.Status = status
	tr.mu.Unlock()

	t.mu.Lock()
	delete(t.traces, tr.ID)
	exporters := make([]Exporter, len(t.exporters))
	copy(exporters, t.exporters)
	t.mu.Unlock()

	for _, exp := range exporters {
		if err := exp.Export(tr); err != nil {
			t.onExportErr(err)
		}
	}
}
