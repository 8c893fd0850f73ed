package locator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func requesters(ds []Deferred[int]) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Requester)
	}
	return out
}

func TestFirstPositiveAnswerWins(t *testing.T) {
	r := require.New(t)
	loc := NewLocator[string, int]()

	r.Equal(RoundStarted, loc.Defer("R1", "A", 1, 3))
	r.Equal(RoundJoined, loc.Defer("R1", "B", 2, 3))

	out, ok := loc.Outstanding("R1")
	r.True(ok)
	r.Equal(3, out, "joining does not change the answer count")

	_, exhausted := loc.NotFound("R1")
	r.False(exhausted)

	deferred := loc.Found("R1", "node2")
	r.Equal([]string{"A", "B"}, requesters(deferred))
	r.Equal(1, deferred[0].Msg)

	owner, ok := loc.Lookup("R1")
	r.True(ok)
	r.Equal("node2", owner)
	r.Empty(loc.Discovering())

	// late answers after the round closed
	r.Nil(loc.Found("R1", "node3"))
	owner, _ = loc.Lookup("R1")
	r.Equal("node2", owner, "the first owner stays cached")

	d, exhausted := loc.NotFound("R1")
	r.Nil(d)
	r.False(exhausted)
}

func TestAllNegativeAnswers(t *testing.T) {
	r := require.New(t)
	loc := NewLocator[string, int]()

	r.Equal(RoundStarted, loc.Defer("R9", "A", 1, 2))
	r.Equal(map[string]int{"R9": 2}, loc.Discovering())

	d, exhausted := loc.NotFound("R9")
	r.Nil(d)
	r.False(exhausted)

	loc.Defer("R9", "B", 2, 2)

	d, exhausted = loc.NotFound("R9")
	r.True(exhausted)
	r.Equal([]string{"A", "B"}, requesters(d))

	_, ok := loc.Lookup("R9")
	r.False(ok)
	_, ok = loc.Outstanding("R9")
	r.False(ok)

	// a later request opens a fresh round
	r.Equal(RoundStarted, loc.Defer("R9", "C", 3, 2))
}

func TestNoPeers(t *testing.T) {
	r := require.New(t)
	loc := NewLocator[string, int]()

	r.Equal(RoundEmpty, loc.Defer("R1", "A", 1, 0))
	r.Equal([]string{"A"}, requesters(loc.Drain("R1")))
	r.Nil(loc.Drain("R1"))
	r.Empty(loc.Discovering())
}

func TestLocatedIsACopy(t *testing.T) {
	loc := NewLocator[string, int]()
	loc.Defer("R1", "A", 1, 1)
	loc.Found("R1", "node2")

	located := loc.Located()
	located["R1"] = "mutated"

	owner, _ := loc.Lookup("R1")
	require.Equal(t, "node2", owner)
}

func TestRoundString(t *testing.T) {
	require.Equal(t, "started", RoundStarted.String())
	require.Equal(t, "joined", RoundJoined.String())
	require.Equal(t, "empty", RoundEmpty.String())
	require.Equal(t, "unknown", Round(0).String())
}
