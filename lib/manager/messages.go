package manager

import (
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/resource"
)

// Message is the closed set of messages a node processes
type Message interface {
	isMessage()
}

// --------------------------------------------------------------------------
// Bootstrap
// --------------------------------------------------------------------------

// SetPeers replaces the list of known peers. Done is closed once the list is applied.
type SetPeers struct {
	Peers []Peer
	Done  chan<- struct{}
}

// SetLocalUsers records the users of this node. Done is closed once the list is applied.
type SetLocalUsers struct {
	Users []string
	Done  chan<- struct{}
}

// SetLocalResources registers and enables resources hosted by this node.
// Done is closed once all resources are registered.
type SetLocalResources struct {
	Resources []*resource.Resource
	Done      chan<- struct{}
}

// --------------------------------------------------------------------------
// Requests
// --------------------------------------------------------------------------

// AccessRequest asks for access to a resource. The reply goes to Requester.
type AccessRequest struct {
	Resource  string
	Kind      lockmgr.RequestKind
	Requester Requester
}

// AccessRelease releases one access entry. It has no reply.
type AccessRelease struct {
	Resource string
	Access   lockmgr.AccessType
	Releaser string
}

// ManagementRequest asks to enable or disable a resource. The reply goes to Requester.
type ManagementRequest struct {
	Resource  string
	Kind      lockmgr.ManagementKind
	Requester Requester
}

// --------------------------------------------------------------------------
// Discovery
// --------------------------------------------------------------------------

// WhoHasQuery asks a peer whether it hosts Resource. The answer is sent to ReplyTo.
type WhoHasQuery struct {
	Resource  string
	Requester string
	ReplyTo   Peer
}

// WhoHasResponse answers a WhoHasQuery
type WhoHasResponse struct {
	Resource  string
	Requester string
	Owns      bool
	From      Peer
}

// --------------------------------------------------------------------------
// Introspection
// --------------------------------------------------------------------------

// SnapshotRequest asks for a copy of the node state. Reply must be buffered.
type SnapshotRequest struct {
	Reply chan<- Snapshot
}

func (SetPeers) isMessage()          {}
func (SetLocalUsers) isMessage()     {}
func (SetLocalResources) isMessage() {}
func (AccessRequest) isMessage()     {}
func (AccessRelease) isMessage()     {}
func (ManagementRequest) isMessage() {}
func (WhoHasQuery) isMessage()       {}
func (WhoHasResponse) isMessage()    {}
func (SnapshotRequest) isMessage()   {}

// --------------------------------------------------------------------------
// Replies
// --------------------------------------------------------------------------

// Reply is the closed set of replies delivered to requesters
type Reply interface {
	isReply()
}

type AccessGranted struct {
	Request AccessRequest
}

type AccessDenied struct {
	Request AccessRequest
	Reason  lockmgr.AccessDenialReason
}

type ManagementGranted struct {
	Request ManagementRequest
}

type ManagementDenied struct {
	Request ManagementRequest
	Reason  lockmgr.ManagementDenialReason
}

func (AccessGranted) isReply()     {}
func (AccessDenied) isReply()      {}
func (ManagementGranted) isReply() {}
func (ManagementDenied) isReply()  {}
