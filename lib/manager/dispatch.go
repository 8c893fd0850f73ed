package manager

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dLock/lib/audit"
	"github.com/ValentinKolb/dLock/lib/locator"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
)

// handle processes one message to completion. A panic is recorded as a protocol
// error and does not stop the message loop.
func (n *Node) handle(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("[%s] panic while handling %T: %v", n.id, msg, r)
			n.record(audit.Event{Kind: audit.ProtocolError, Detail: fmt.Sprintf("panic handling %T: %v", msg, r)})
		}
	}()

	switch m := msg.(type) {
	case SetPeers:
		n.onSetPeers(m)
	case SetLocalUsers:
		n.onSetLocalUsers(m)
	case SetLocalResources:
		n.onSetLocalResources(m)
	case AccessRequest:
		n.onAccessRequest(m)
	case AccessRelease:
		n.onAccessRelease(m)
	case ManagementRequest:
		n.onManagementRequest(m)
	case WhoHasQuery:
		n.onWhoHasQuery(m)
	case WhoHasResponse:
		n.onWhoHasResponse(m)
	case SnapshotRequest:
		n.onSnapshotRequest(m)
	default:
		n.protocolError("unknown message type %T", msg)
	}
}

func (n *Node) record(e audit.Event) {
	n.audit.Record(e)
}

func (n *Node) protocolError(format string, args ...any) {
	detail := fmt.Sprintf(format, args...)
	Logger.Warningf("[%s] protocol error: %s", n.id, detail)
	n.record(audit.Event{Kind: audit.ProtocolError, Detail: detail})
}

// --------------------------------------------------------------------------
// Bootstrap
// --------------------------------------------------------------------------

func (n *Node) onSetPeers(m SetPeers) {
	peers := make([]Peer, 0, len(m.Peers))
	ids := make([]string, 0, len(m.Peers))
	for _, p := range m.Peers {
		if p == nil || p.ID() == n.id {
			continue
		}
		peers = append(peers, p)
		ids = append(ids, p.ID())
	}
	n.peers = peers

	n.record(audit.Event{Kind: audit.PeersUpdated, Detail: strings.Join(ids, ",")})
	if m.Done != nil {
		close(m.Done)
	}
}

func (n *Node) onSetLocalUsers(m SetLocalUsers) {
	n.users = append([]string(nil), m.Users...)

	n.record(audit.Event{Kind: audit.LocalUsersUpdated, Detail: strings.Join(n.users, ",")})
	if m.Done != nil {
		close(m.Done)
	}
}

func (n *Node) onSetLocalResources(m SetLocalResources) {
	for _, res := range m.Resources {
		if res == nil {
			continue
		}
		if !n.table.Register(res) {
			Logger.Warningf("[%s] resource %s is already registered, ignoring", n.id, res.Name())
			continue
		}
		n.record(audit.Event{Kind: audit.LocalResourceCreated, Resource: res.Name()})
	}
	if m.Done != nil {
		close(m.Done)
	}
}

// --------------------------------------------------------------------------
// Access
// --------------------------------------------------------------------------

func (n *Node) onAccessRequest(m AccessRequest) {
	if m.Requester == nil {
		n.protocolError("access request for %s without requester", m.Resource)
		return
	}
	n.record(audit.Event{Kind: audit.AccessRequestReceived, Resource: m.Resource, Requester: m.Requester.ID(), Detail: m.Kind.String()})

	if !m.Kind.Valid() {
		n.protocolError("access request for %s with invalid kind %d", m.Resource, m.Kind)
		return
	}

	if !n.table.Has(m.Resource) {
		n.route(m.Resource, m.Requester.ID(), m)
		return
	}

	result := n.table.Acquire(m.Resource, m.Requester.ID(), m.Kind, m.Requester)
	switch result.Outcome {
	case lockmgr.Granted:
		n.grantAccess(m)
	case lockmgr.Queued:
		n.record(audit.Event{Kind: audit.AccessQueued, Resource: m.Resource, Requester: m.Requester.ID(), Detail: m.Kind.String()})
	default:
		n.denyAccess(m, result.Reason)
	}
}

func (n *Node) grantAccess(m AccessRequest) {
	n.record(audit.Event{Kind: audit.AccessGranted, Resource: m.Resource, Requester: m.Requester.ID(), Detail: m.Kind.String()})
	m.Requester.Deliver(AccessGranted{Request: m})
}

func (n *Node) denyAccess(m AccessRequest, reason lockmgr.AccessDenialReason) {
	n.record(audit.Event{Kind: audit.AccessDenied, Resource: m.Resource, Requester: m.Requester.ID(), Detail: reason.String()})
	m.Requester.Deliver(AccessDenied{Request: m, Reason: reason})
}

func (n *Node) onAccessRelease(m AccessRelease) {
	n.record(audit.Event{Kind: audit.AccessReleaseReceived, Resource: m.Resource, Requester: m.Releaser, Detail: m.Access.String()})

	if !n.table.Has(m.Resource) {
		n.route(m.Resource, m.Releaser, m)
		return
	}

	result := n.table.Release(m.Resource, m.Releaser, m.Access)
	if !result.Released {
		Logger.Debugf("[%s] %s does not hold %s on %s, ignoring release", n.id, m.Releaser, m.Access, m.Resource)
		n.record(audit.Event{Kind: audit.AccessReleaseIgnored, Resource: m.Resource, Requester: m.Releaser, Detail: m.Access.String()})
		return
	}
	n.record(audit.Event{Kind: audit.AccessReleased, Resource: m.Resource, Requester: m.Releaser, Detail: m.Access.String()})

	for _, w := range result.Woken {
		n.grantAccess(AccessRequest{Resource: m.Resource, Kind: w.Kind, Requester: w.Payload})
	}

	if result.Disabled {
		n.record(audit.Event{Kind: audit.ResourceStatusChanged, Resource: m.Resource, Detail: "disabled"})
	}
	for _, w := range result.DisableGranted {
		n.grantManagement(ManagementRequest{Resource: m.Resource, Kind: lockmgr.ManageDisable, Requester: w.Payload})
	}
}

// --------------------------------------------------------------------------
// Management
// --------------------------------------------------------------------------

func (n *Node) onManagementRequest(m ManagementRequest) {
	if m.Requester == nil {
		n.protocolError("management request for %s without requester", m.Resource)
		return
	}
	n.record(audit.Event{Kind: audit.ManagementRequestReceived, Resource: m.Resource, Requester: m.Requester.ID(), Detail: m.Kind.String()})

	if !m.Kind.Valid() {
		n.protocolError("management request for %s with invalid kind %d", m.Resource, m.Kind)
		return
	}

	if !n.table.Has(m.Resource) {
		n.route(m.Resource, m.Requester.ID(), m)
		return
	}

	if m.Kind == lockmgr.ManageEnable {
		if n.table.Enable(m.Resource) {
			n.record(audit.Event{Kind: audit.ResourceStatusChanged, Resource: m.Resource, Detail: "enabled"})
		}
		n.grantManagement(m)
		return
	}

	result := n.table.Disable(m.Resource, m.Requester.ID(), m.Requester)
	for _, w := range result.Flushed {
		n.denyAccess(AccessRequest{Resource: m.Resource, Kind: w.Kind, Requester: w.Payload}, lockmgr.ResourceDisabled)
	}

	switch result.Outcome {
	case lockmgr.Granted:
		if result.Disabled {
			n.record(audit.Event{Kind: audit.ResourceStatusChanged, Resource: m.Resource, Detail: "disabled"})
		}
		n.grantManagement(m)
	case lockmgr.Queued:
		n.record(audit.Event{Kind: audit.ManagementQueued, Resource: m.Resource, Requester: m.Requester.ID(), Detail: m.Kind.String()})
	default:
		n.denyManagement(m, result.Reason)
	}
}

func (n *Node) grantManagement(m ManagementRequest) {
	n.record(audit.Event{Kind: audit.ManagementGranted, Resource: m.Resource, Requester: m.Requester.ID(), Detail: m.Kind.String()})
	m.Requester.Deliver(ManagementGranted{Request: m})
}

func (n *Node) denyManagement(m ManagementRequest, reason lockmgr.ManagementDenialReason) {
	n.record(audit.Event{Kind: audit.ManagementDenied, Resource: m.Resource, Requester: m.Requester.ID(), Detail: reason.String()})
	m.Requester.Deliver(ManagementDenied{Request: m, Reason: reason})
}

// --------------------------------------------------------------------------
// Routing and discovery
// --------------------------------------------------------------------------

// route handles a message for a resource that is not hosted locally: it is
// forwarded to the cached owner or parked until discovery finds one.
func (n *Node) route(name, requester string, msg Message) {
	if owner, ok := n.locator.Lookup(name); ok {
		n.forward(owner, msg)
		return
	}

	switch n.locator.Defer(name, requester, msg, len(n.peers)) {
	case locator.RoundStarted:
		n.record(audit.Event{Kind: audit.DiscoveryStarted, Resource: name, Requester: requester, Detail: fmt.Sprintf("asking %d peers", len(n.peers))})
		for _, p := range n.peers {
			p.Tell(WhoHasQuery{Resource: name, Requester: requester, ReplyTo: n})
		}
	case locator.RoundJoined:
		n.record(audit.Event{Kind: audit.DiscoveryJoined, Resource: name, Requester: requester})
	case locator.RoundEmpty:
		n.notFound(name, n.locator.Drain(name))
	}
}

func (n *Node) forward(owner Peer, msg Message) {
	e := audit.Event{Peer: owner.ID()}
	switch m := msg.(type) {
	case AccessRequest:
		e.Kind, e.Resource, e.Requester = audit.AccessForwarded, m.Resource, m.Requester.ID()
	case AccessRelease:
		e.Kind, e.Resource, e.Requester = audit.AccessReleaseForwarded, m.Resource, m.Releaser
	case ManagementRequest:
		e.Kind, e.Resource, e.Requester = audit.ManagementForwarded, m.Resource, m.Requester.ID()
	default:
		n.protocolError("cannot forward %T", msg)
		return
	}
	n.record(e)
	owner.Tell(msg)
}

func (n *Node) onWhoHasQuery(m WhoHasQuery) {
	if m.ReplyTo == nil {
		n.protocolError("who-has query for %s without reply address", m.Resource)
		return
	}

	owns := n.table.Has(m.Resource)
	n.record(audit.Event{Kind: audit.WhoHasAnswered, Resource: m.Resource, Requester: m.Requester, Peer: m.ReplyTo.ID(), Detail: fmt.Sprintf("owns=%t", owns)})
	m.ReplyTo.Tell(WhoHasResponse{Resource: m.Resource, Requester: m.Requester, Owns: owns, From: n})
}

func (n *Node) onWhoHasResponse(m WhoHasResponse) {
	if !m.Owns {
		deferred, exhausted := n.locator.NotFound(m.Resource)
		if exhausted {
			n.notFound(m.Resource, deferred)
		}
		return
	}

	if m.From == nil {
		n.protocolError("positive who-has response for %s without sender", m.Resource)
		return
	}

	deferred := n.locator.Found(m.Resource, m.From)
	if deferred == nil {
		// late answer of a closed round
		return
	}
	n.record(audit.Event{Kind: audit.RemoteResourceDiscovered, Resource: m.Resource, Peer: m.From.ID()})
	for _, d := range deferred {
		n.forward(m.From, d.Msg)
	}
}

// notFound denies every message parked for a resource that nobody hosts
func (n *Node) notFound(name string, deferred []locator.Deferred[Message]) {
	n.record(audit.Event{Kind: audit.ResourceNotFound, Resource: name, Detail: fmt.Sprintf("%d parked requests", len(deferred))})

	for _, d := range deferred {
		switch m := d.Msg.(type) {
		case AccessRequest:
			n.denyAccess(m, lockmgr.AccessResourceNotFound)
		case ManagementRequest:
			n.denyManagement(m, lockmgr.ManagementResourceNotFound)
		case AccessRelease:
			n.record(audit.Event{Kind: audit.AccessReleaseDropped, Resource: name, Requester: m.Releaser, Detail: m.Access.String()})
		default:
			n.protocolError("cannot deny parked %T", d.Msg)
		}
	}
}
