package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var (
	registerOnce sync.Once

	eventsAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turtle",
			Subsystem: "store",
			Name:      "events_appended_total",
			Help:      "Events appended to turtle logs, by event type.",
		},
		[]string{"type"},
	)
	logsCleared = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turtle",
			Subsystem: "store",
			Name:      "logs_cleared_total",
			Help:      "Turtle logs reset with Clear.",
		},
	)
	subscriberFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turtle",
			Subsystem: "store",
			Name:      "subscriber_failures_total",
			Help:      "Subscriber deliveries that returned an error or panicked.",
		},
		[]string{"subscriber", "reason"},
	)
	commandsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turtle",
			Subsystem: "command",
			Name:      "handled_total",
			Help:      "Commands handled, by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
)

// Registry is where RegisterMetrics puts the collectors. It defaults to
// the global Prometheus registry.
var Registry prometheus.Registerer = prometheus.DefaultRegisterer

// Gatherer is what WriteMetrics reads from.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

func RegisterMetrics() {
	registerOnce.Do(func() {
		Registry.MustRegister(eventsAppended, logsCleared, subscriberFailures, commandsHandled)
	})
}

func RecordAppend(eventType string) {
	RegisterMetrics()
	eventsAppended.WithLabelValues(eventType).Inc()
}

func RecordClear() {
	RegisterMetrics()
	logsCleared.Inc()
}

// RecordSubscriberFailure counts a failed delivery. reason is "error" or
// "panic".
func RecordSubscriberFailure(subscriber, reason string) {
	RegisterMetrics()
	subscriberFailures.WithLabelValues(subscriber, reason).Inc()
}

// RecordCommand counts a handled command. outcome is "ok" or "error".
func RecordCommand(action, outcome string) {
	RegisterMetrics()
	commandsHandled.WithLabelValues(action, outcome).Inc()
}

// WriteMetrics writes the turtle_* families in the Prometheus text
// exposition format.
func WriteMetrics(w io.Writer) error {
	RegisterMetrics()
	families, err := Gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "turtle_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
