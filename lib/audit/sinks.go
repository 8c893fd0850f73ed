package audit

import (
	"sync"

	"github.com/lni/dragonboat/v4/logger"
)

// Logger is used by the logging sink
var Logger = logger.GetLogger("audit")

// --------------------------------------------------------------------------
// Logger sink
// --------------------------------------------------------------------------

type loggerSink struct{}

// NewLoggerSink writes every event to the audit logger at debug level.
// Denials and protocol errors are logged at info and warning level.
func NewLoggerSink() ISink {
	return loggerSink{}
}

func (loggerSink) Record(e Event) {
	switch e.Kind {
	case ProtocolError:
		Logger.Warningf("[%s] %s", e.Node, e)
	case AccessDenied, ManagementDenied, ResourceNotFound, AccessReleaseDropped:
		Logger.Infof("[%s] %s", e.Node, e)
	default:
		Logger.Debugf("[%s] %s", e.Node, e)
	}
}

// --------------------------------------------------------------------------
// Memory sink
// --------------------------------------------------------------------------

// MemorySink keeps every event in memory. It is used by tests and the status command.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Record(e Event) {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
}

// Events returns a copy of all recorded events in record order
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Kinds returns the recorded events of the given kinds
func (m *MemorySink) Kinds(kinds ...Kind) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, e := range m.events {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Reset drops all recorded events
func (m *MemorySink) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}

// --------------------------------------------------------------------------
// Fan-out
// --------------------------------------------------------------------------

type multiSink []ISink

// Multi records every event on all given sinks in order. Nil sinks are skipped.
func Multi(sinks ...ISink) ISink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Record(e Event) {
	for _, s := range m {
		s.Record(e)
	}
}
