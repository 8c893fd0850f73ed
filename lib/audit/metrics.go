package audit

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// MetricsSink counts events per kind and measures discovery latency.
//
// Exposed metrics:
//
//	dlock_events_total{node="...",kind="..."}
//	dlock_discovery_duration_seconds{node="..."}
type MetricsSink struct {
	set       *metrics.Set
	node      string
	discovery *metrics.Histogram

	// start time of every running discovery round by resource name.
	// only touched from the node's message loop.
	started map[string]time.Time
}

// NewMetricsSink creates a sink writing to the given set
func NewMetricsSink(set *metrics.Set, node string) *MetricsSink {
	return &MetricsSink{
		set:       set,
		node:      node,
		discovery: set.GetOrCreateHistogram(fmt.Sprintf(`dlock_discovery_duration_seconds{node=%q}`, node)),
		started:   make(map[string]time.Time),
	}
}

func (m *MetricsSink) Record(e Event) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`dlock_events_total{node=%q,kind=%q}`, m.node, e.Kind)).Inc()

	switch e.Kind {
	case DiscoveryStarted:
		m.started[e.Resource] = e.Time
	case RemoteResourceDiscovered, ResourceNotFound:
		if start, ok := m.started[e.Resource]; ok {
			m.discovery.Update(e.Time.Sub(start).Seconds())
			delete(m.started, e.Resource)
		}
	}
}

// Set returns the metrics set of the sink
func (m *MetricsSink) Set() *metrics.Set {
	return m.set
}
