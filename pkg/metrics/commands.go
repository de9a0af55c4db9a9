package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommandMetrics records outcome and latency of chat commands.
type CommandMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewCommandMetrics registers the command metrics on the provided registerer.
func NewCommandMetrics(reg prometheus.Registerer) *CommandMetrics {
	if reg == nil {
		return &CommandMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bot_command_duration_seconds",
		Help:    "Duration of chat command handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_command_total",
		Help: "Handled chat commands by outcome.",
	}, []string{"command", "outcome"})
	reg.MustRegister(duration, total)
	return &CommandMetrics{
		duration: duration,
		total:    total,
	}
}

// ObserveCommand records one handled command with its outcome and duration.
func (c *CommandMetrics) ObserveCommand(command, outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	command = normalizeLabel(command)
	c.duration.WithLabelValues(command).Observe(duration.Seconds())
	c.total.WithLabelValues(command, normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
