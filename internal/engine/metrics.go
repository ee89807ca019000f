package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mheg_engine_events_total",
			Help: "Total number of events matched against active links.",
		},
		[]string{"type", "mode"},
	)

	actionsExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mheg_engine_actions_total",
			Help: "Total number of elementary actions executed.",
		},
		[]string{"action"},
	)

	linksFired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mheg_engine_links_fired_total",
			Help: "Total number of link condition matches.",
		},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mheg_engine_transitions_total",
			Help: "Total number of scene transitions and application changes.",
		},
		[]string{"kind"},
	)

	contentErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mheg_engine_content_errors_total",
			Help: "Total number of content requests that timed out or failed to load.",
		},
	)

	timersScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mheg_engine_timers_scheduled_total",
			Help: "Total number of timers handed to the timer service.",
		},
	)

	asyncQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mheg_engine_async_queue_depth",
			Help: "Number of asynchronous events waiting for dispatch.",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsGenerated)
	prometheus.MustRegister(actionsExecuted)
	prometheus.MustRegister(linksFired)
	prometheus.MustRegister(transitions)
	prometheus.MustRegister(contentErrors)
	prometheus.MustRegister(timersScheduled)
	prometheus.MustRegister(asyncQueueDepth)

	// Pre-initialize transition kinds so they appear in /metrics at zero.
	for _, k := range []string{"transition", "quit", "launch", "spawn", "retune"} {
		transitions.WithLabelValues(k)
	}
}
