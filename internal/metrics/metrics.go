package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and gauges exposed on /metrics.
var (
	CheckIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timeclock_checkins_total",
		Help: "Successful check-ins recorded.",
	})

	CheckOuts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timeclock_checkouts_total",
		Help: "Successful check-outs recorded.",
	})

	RejectedTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeclock_rejected_transitions_total",
		Help: "Check-in/check-out attempts rejected by the state machine.",
	}, []string{"code"})

	EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeclock_events_broadcast_total",
		Help: "Realtime events handed to the notifier.",
	}, []string{"event"})

	ConnectedObservers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "timeclock_connected_observers",
		Help: "Observers currently subscribed to the realtime stream.",
	})

	AbsenteesMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timeclock_absentees_marked_total",
		Help: "Absent records backfilled by the worker at day close.",
	})
)
