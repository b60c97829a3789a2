package tracing

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// ConsoleExporter renders a trace as a recursive indented tree with
// per-span timing in milliseconds, a status icon, attributes, and events.
type ConsoleExporter struct {
	Writer io.Writer
}

func (e *ConsoleExporter) Export(tr *Trace) error {
	statusIcon := "✓" // checkmark
	if tr.Status == StatusError {
		statusIcon = "✗" // cross
	}
	fmt.Fprintf(e.Writer, "%s %s [%dms]\n", statusIcon, tr.Name, tr.EndMs-tr.StartMs)
	printAttributes(e.Writer, tr.Attributes, 1)

	children := childrenOf(tr.Spans, "")
	for _, sp := range children {
		printSpan(e.Writer, tr.Spans, sp, 1)
	}
	return nil
}

func childrenOf(spans []*Span, parentID string) []*Span {
	var out []*Span
	for _, sp := range spans {
		if sp.ParentID == parentID {
			out = append(out, sp)
		}
	}
	return out
}

func printSpan(w io.Writer, all []*Span, sp *Span, depth int) {
	indent := indentOf(depth)
	statusIcon := "✓"
	if sp.Status == StatusError {
		statusIcon = "✗"
	}
	fmt.Fprintf(w, "%s%s %s [%dms]\n", indent, statusIcon, sp.Name, sp.EndMs-sp.StartMs)
	printAttributes(w, sp.Attributes, depth+1)
	for _, ev := range sp.Events {
		fmt.Fprintf(w, "%s  event: %s\n", indent, ev.Name)
	}
	for _, child := range childrenOf(all, sp.ID) {
		printSpan(w, all, child, depth+1)
	}
}

func printAttributes(w io.Writer, attrs map[string]interface{}, depth int) {
	if len(attrs) == 0 {
		return
	}
	indent := indentOf(depth)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s%s=%v\n", indent, k, attrs[k])
	}
}

func indentOf(depth int) string {
	out := make([]byte, depth*2)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}

// JSONExporter stringifies the whole trace with a configurable indent.
type JSONExporter struct {
	Writer io.Writer
	Indent string
}

func (e *JSONExporter) Export(tr *Trace) error {
	var b []byte
	var err error
	if e.Indent != "" {
		b, err = json.MarshalIndent(tr, "", e.Indent)
	} else {
		b, err = json.Marshal(tr)
	}
	if err != nil {
		return err
	}
	_, err = e.Writer.Write(append(b, '\n'))
	return err
}

// CallbackExporter invokes a user function with the completed trace.
type CallbackExporter struct {
	Fn func(tr *Trace)
}

func (e *CallbackExporter) Export(tr *Trace) error {
	e.Fn(tr)
	return nil
}
