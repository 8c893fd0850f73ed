package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindNames(t *testing.T) {
	for k := KindUnknown; k < kindCount; k++ {
		name := k.String()
		assert.NotEmpty(t, name, "kind %d has no name", k)
		parsed, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.Equal(t, "unknown", Kind(200).String())

	_, err := ParseKind("nope")
	assert.Error(t, err)
}

func TestEventJSON(t *testing.T) {
	e := Event{Seq: 3, Node: "n1", Kind: AccessGranted, Resource: "R1", Requester: "A"}
	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"access_granted"`)

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, AccessGranted, back.Kind)
	assert.Equal(t, "A", back.Requester)
}

func TestRecorderStampsEvents(t *testing.T) {
	sink := NewMemorySink()
	rec := NewRecorder("n1", sink)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return fixed }

	rec.Record(Event{Kind: PeersUpdated, Node: "ignored"})
	rec.Record(Event{Kind: AccessGranted})

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, uint64(2), events[1].Seq)
	assert.Equal(t, "n1", events[0].Node)
	assert.Equal(t, fixed, events[1].Time)
	assert.Equal(t, uint64(2), rec.Seq())

	// nil sink
	NewRecorder("n1", nil).Record(Event{Kind: AccessGranted})
}

func TestMemorySinkFilter(t *testing.T) {
	sink := NewMemorySink()
	sink.Record(Event{Kind: AccessGranted, Requester: "A"})
	sink.Record(Event{Kind: AccessDenied, Requester: "B"})
	sink.Record(Event{Kind: AccessQueued, Requester: "C"})

	got := sink.Kinds(AccessGranted, AccessQueued)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Requester)
	assert.Equal(t, "C", got[1].Requester)

	sink.Reset()
	assert.Empty(t, sink.Events())
}

func TestMulti(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	m := Multi(a, nil, b)
	m.Record(Event{Kind: ProtocolError})

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestMetricsSink(t *testing.T) {
	set := metrics.NewSet()
	sink := NewMetricsSink(set, "n1")

	start := time.Now()
	sink.Record(Event{Kind: AccessGranted, Time: start})
	sink.Record(Event{Kind: AccessGranted, Time: start})
	sink.Record(Event{Kind: DiscoveryStarted, Resource: "R2", Time: start})
	sink.Record(Event{Kind: RemoteResourceDiscovered, Resource: "R2", Time: start.Add(20 * time.Millisecond)})

	var buf bytes.Buffer
	set.WritePrometheus(&buf)
	out := buf.String()

	assert.Contains(t, out, `dlock_events_total{node="n1",kind="access_granted"} 2`)
	assert.Contains(t, out, `dlock_events_total{node="n1",kind="discovery_started"} 1`)
	assert.Contains(t, out, `dlock_discovery_duration_seconds_count{node="n1"} 1`)
	assert.Empty(t, sink.started)
}

func TestBadgerSinkRoundTrip(t *testing.T) {
	db, err := OpenDB(DBConfig{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	n1 := NewBadgerSink(db, "n1")
	n2 := NewBadgerSink(db, "n2")

	rec1 := NewRecorder("n1", n1)
	rec2 := NewRecorder("n2", n2)
	for i := 0; i < 500; i++ {
		rec1.Record(Event{Kind: AccessGranted, Resource: "R1", Requester: fmt.Sprintf("r%d", i)})
	}
	rec2.Record(Event{Kind: PeersUpdated})

	n1.Close()
	n2.Close()

	events, err := ReadEvents(db, NodePrefix("n1"))
	require.NoError(t, err)
	require.Len(t, events, 500)
	for i, e := range events {
		assert.Equal(t, uint64(i+1), e.Seq, "events are read back in record order")
		assert.Equal(t, "n1", e.Node)
	}

	all, err := ReadEvents(db, "audit/")
	require.NoError(t, err)
	assert.Len(t, all, 501)

	// closed sinks drop events
	n1.Record(Event{Kind: AccessGranted})
}

func TestEventKeyOrder(t *testing.T) {
	base := time.Unix(1700000000, 0)
	k1 := EventKey(Event{Node: "n1", Seq: 9, Time: base})
	k2 := EventKey(Event{Node: "n1", Seq: 10, Time: base})
	k3 := EventKey(Event{Node: "n1", Seq: 1, Time: base.Add(time.Nanosecond)})

	assert.True(t, strings.HasPrefix(string(k1), "audit/n1/"))
	assert.Negative(t, bytes.Compare(k1, k2))
	assert.Negative(t, bytes.Compare(k2, k3))
}

func TestOpenDBRequiresPath(t *testing.T) {
	_, err := OpenDB(DBConfig{})
	assert.Error(t, err)
}
