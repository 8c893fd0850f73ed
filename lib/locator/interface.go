package locator

// ILocator resolves resource names that are not hosted locally to the peer that owns them.
// P is the peer type, M the type of the messages parked while a lookup is running.
//
// Implementations are not safe for concurrent use; the owning node calls them from
// its message loop only.
type ILocator[P any, M any] interface {
	// Lookup returns the cached owner of a resource
	Lookup(name string) (P, bool)

	// Defer parks a message until the owner of name is known. The first deferral for a
	// name opens a discovery round expecting peerCount answers; the caller must then
	// broadcast a query. Deferrals while a round is open join it.
	Defer(name, requester string, msg M, peerCount int) Round

	// Found records a positive answer. The first one wins: the owner is cached, the
	// round closes and every parked message for the name is returned in arrival order.
	// Returns nil if no round was open.
	Found(name string, owner P) []Deferred[M]

	// NotFound records a negative answer. When the last outstanding answer arrives the
	// round closes and the parked messages are returned with exhausted set.
	NotFound(name string) (deferred []Deferred[M], exhausted bool)

	// Drain closes a round without an answer and returns its parked messages
	Drain(name string) []Deferred[M]

	// Outstanding returns the number of unanswered queries of the open round for name
	Outstanding(name string) (int, bool)

	// Located returns a copy of the owner cache
	Located() map[string]P

	// Discovering returns the outstanding answer count of every open round
	Discovering() map[string]int
}

// Round tells the caller what Defer did
type Round uint8

const (
	// RoundStarted means a new round was opened and a query must be broadcast
	RoundStarted Round = iota + 1
	// RoundJoined means the message joined a round that is already in flight
	RoundJoined
	// RoundEmpty means there are no peers to ask; the caller should Drain the round
	RoundEmpty
)

func (r Round) String() string {
	switch r {
	case RoundStarted:
		return "started"
	case RoundJoined:
		return "joined"
	case RoundEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Deferred is a message parked during discovery
type Deferred[M any] struct {
	Requester string
	Msg       M
}
