package audit

import "time"

// Recorder stamps events of one node with a sequence number and time before
// passing them to a sink. It is not safe for concurrent use.
type Recorder struct {
	node string
	sink ISink
	seq  uint64
	now  func() time.Time
}

// NewRecorder creates a recorder for the given node. A nil sink discards all events.
func NewRecorder(node string, sink ISink) *Recorder {
	return &Recorder{node: node, sink: sink, now: time.Now}
}

// Record completes and records e. Seq, Time and Node are overwritten.
func (r *Recorder) Record(e Event) {
	if r.sink == nil {
		return
	}
	r.seq++
	e.Seq = r.seq
	e.Time = r.now()
	e.Node = r.node
	r.sink.Record(e)
}

// Seq returns the sequence number of the last recorded event
func (r *Recorder) Seq() uint64 {
	return r.seq
}
