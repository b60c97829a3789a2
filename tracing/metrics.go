package tracing

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds optional Prometheus counters for the ambient observability
// concern of tool latency and token usage; not part of the spec's trace
// model, registered only when a caller opts in.
type Metrics struct {
	ToolLatencySeconds *prometheus.HistogramVec
	TokensTotal        *prometheus.CounterVec
}

// NewMetrics builds and registers the counters against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ToolLatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "agent_tool_call_duration_seconds",
			Help: "Duration of tool executions in seconds.",
		}, []string{"tool"}),
		TokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_tokens_total",
			Help: "Tokens consumed, by kind (prompt/completion).",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.ToolLatencySeconds, m.TokensTotal)
	return m
}

// ObserveToolLatency records a tool's execution duration in seconds.
func (m *Metrics) ObserveToolLatency(toolName string, seconds float64) {
	if m == nil {
		return
	}
	m.ToolLatencySeconds.WithLabelValues(toolName).Observe(seconds)
}

// AddTokens increments the token counter for kind ("prompt" or "completion").
func (m *Metrics) AddTokens(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensTotal.WithLabelValues(kind).Add(float64(n))
}
