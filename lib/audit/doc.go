// Package audit records the externally observable decisions of a lock manager node.
//
// Every message a node processes produces one or more events (request received,
// granted, queued, forwarded, discovery started, ...). Events are numbered per
// node and passed to an ISink. The node calls the sink from its message loop,
// so sinks must return quickly.
//
// Available sinks:
//
//   - NewLoggerSink: writes events to the "audit" logger
//   - NewMemorySink: keeps events in memory (tests, status output)
//   - NewMetricsSink: counts events per kind and measures discovery latency
//     with VictoriaMetrics
//   - NewBadgerSink: persists events to a badger database through a
//     background writer; ReadEvents reads them back
//
// Multi combines several sinks.
//
// Example:
//
//	db, _ := audit.OpenDB(audit.DBConfig{Path: "/var/lib/dlock/audit"})
//	store := audit.NewBadgerSink(db, "node1")
//	defer store.Close()
//
//	rec := audit.NewRecorder("node1", audit.Multi(audit.NewLoggerSink(), store))
//	rec.Record(audit.Event{Kind: audit.AccessGranted, Resource: "R1", Requester: "alice"})
package audit
