package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	Connections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "whiteboard_connections",
			Help: "Open websocket connections",
		},
	)

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whiteboard_events_received_total",
			Help: "Inbound websocket events",
		},
		[]string{"event"},
	)

	// Room metrics
	Rooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "whiteboard_rooms",
			Help: "Rooms currently held in memory",
		},
	)

	ActionsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whiteboard_actions_committed_total",
			Help: "Committed drawing actions",
		},
		[]string{"type"},
	)

	HistoryChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whiteboard_history_changes_total",
			Help: "Undo, redo and load operations that changed a history",
		},
		[]string{"op"},
	)

	MessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whiteboard_messages_dropped_total",
			Help: "Outbound messages dropped because a send buffer was full",
		},
	)

	// Persistence metrics
	SessionOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whiteboard_session_ops_total",
			Help: "Session persistence operations",
		},
		[]string{"op", "result"}, // op: save|load|list, result: ok|error
	)

	SessionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whiteboard_session_latency_seconds",
			Help:    "Session store latency",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"op"},
	)
)

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
