package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics records chat relay activity.
type ChatMetrics struct {
	connections *prometheus.GaugeVec
	messages    *prometheus.CounterVec
	completion  *prometheus.HistogramVec
	toolCalls   *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewChatMetrics registers the chat relay metrics on the provided registerer.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	if reg == nil {
		return &ChatMetrics{}
	}
	connections := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chat_active_connections",
		Help: "Currently open chat websocket connections.",
	}, []string{"transport"})
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Chat messages relayed, by direction.",
	}, []string{"direction"})
	completion := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_completion_duration_seconds",
		Help:    "Latency of upstream chat completion calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})
	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_tool_calls_total",
		Help: "Tool invocations requested by the model.",
	}, []string{"tool"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_failures_total",
		Help: "Relay failures by stage.",
	}, []string{"stage"})
	reg.MustRegister(connections, messages, completion, toolCalls, failures)
	return &ChatMetrics{
		connections: connections,
		messages:    messages,
		completion:  completion,
		toolCalls:   toolCalls,
		failures:    failures,
	}
}

// ConnOpened increments the open connection gauge.
func (c *ChatMetrics) ConnOpened(transport string) {
	if c == nil || c.connections == nil {
		return
	}
	c.connections.WithLabelValues(normalizeLabel(transport)).Inc()
}

// ConnClosed decrements the open connection gauge.
func (c *ChatMetrics) ConnClosed(transport string) {
	if c == nil || c.connections == nil {
		return
	}
	c.connections.WithLabelValues(normalizeLabel(transport)).Dec()
}

// IncMessage counts one relayed message in the given direction.
func (c *ChatMetrics) IncMessage(direction string) {
	if c == nil || c.messages == nil {
		return
	}
	c.messages.WithLabelValues(normalizeLabel(direction)).Inc()
}

// ObserveCompletion records the latency of one upstream completion call.
func (c *ChatMetrics) ObserveCompletion(model string, duration time.Duration) {
	if c == nil || c.completion == nil {
		return
	}
	c.completion.WithLabelValues(normalizeLabel(model)).Observe(duration.Seconds())
}

// IncToolCall counts one tool invocation.
func (c *ChatMetrics) IncToolCall(tool string) {
	if c == nil || c.toolCalls == nil {
		return
	}
	c.toolCalls.WithLabelValues(normalizeLabel(tool)).Inc()
}

// IncFailure counts one relay failure at the named stage.
func (c *ChatMetrics) IncFailure(stage string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(stage)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
