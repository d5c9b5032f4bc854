package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Assistant holds metrics for the chat completion loop.
// A nil *Assistant is valid and records nothing.
type Assistant struct {
	completions *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	tokens      *prometheus.CounterVec
}

// NewAssistant creates the assistant metrics and registers them on reg.
func NewAssistant(reg prometheus.Registerer) (*Assistant, error) {
	m := &Assistant{
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matproj",
			Subsystem: "assistant",
			Name:      "completions_total",
			Help:      "Chat completion requests by model and status.",
		}, []string{"model", "status"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matproj",
			Subsystem: "assistant",
			Name:      "tool_calls_total",
			Help:      "Tool calls requested by the model, by tool and status.",
		}, []string{"tool", "status"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matproj",
			Subsystem: "assistant",
			Name:      "tokens_total",
			Help:      "Tokens consumed by chat completions.",
		}, []string{"model", "type"}),
	}
	if err := RegisterOrReuse(reg, &m.completions); err != nil {
		return nil, err
	}
	if err := RegisterOrReuse(reg, &m.toolCalls); err != nil {
		return nil, err
	}
	if err := RegisterOrReuse(reg, &m.tokens); err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveCompletion records one chat completion and its token usage.
func (m *Assistant) ObserveCompletion(model string, err error, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.completions.WithLabelValues(model, status).Inc()
	if promptTokens > 0 {
		m.tokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.tokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}

// ObserveToolCall records one executed tool call.
func (m *Assistant) ObserveToolCall(tool string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}
