package manager

import (
	"github.com/ValentinKolb/dLock/lib/lockmgr"
)

// Snapshot is a copy of a node's state at one point of its message loop
type Snapshot struct {
	Node        string            `json:"node"`
	Peers       []string          `json:"peers"`
	Users       []string          `json:"users,omitempty"`
	Resources   []lockmgr.State   `json:"resources"`
	Located     map[string]string `json:"located,omitempty"`
	Discovering map[string]int    `json:"discovering,omitempty"`
	Pending     int               `json:"pending"`
	AuditSeq    uint64            `json:"audit_seq"`
}

// Resource returns the lock state of a locally hosted resource
func (s Snapshot) Resource(name string) (lockmgr.State, bool) {
	for _, st := range s.Resources {
		if st.Name == name {
			return st, true
		}
	}
	return lockmgr.State{}, false
}

func (n *Node) onSnapshotRequest(m SnapshotRequest) {
	select {
	case m.Reply <- n.snapshot():
	default:
		n.protocolError("snapshot reply channel is nil or full")
	}
}

func (n *Node) snapshot() Snapshot {
	s := Snapshot{
		Node:        n.id,
		Peers:       make([]string, 0, len(n.peers)),
		Users:       append([]string(nil), n.users...),
		Resources:   make([]lockmgr.State, 0),
		Located:     make(map[string]string),
		Discovering: n.locator.Discovering(),
		Pending:     n.pending.Size(),
		AuditSeq:    n.audit.Seq(),
	}

	for _, p := range n.peers {
		s.Peers = append(s.Peers, p.ID())
	}
	for _, name := range n.table.Names() {
		if st, ok := n.table.State(name); ok {
			s.Resources = append(s.Resources, st)
		}
	}
	for name, owner := range n.locator.Located() {
		s.Located[name] = owner.ID()
	}
	return s
}
