package server

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/ValentinKolb/dLock/rpc/common"
)

// peerNode is the part of the node used by the peer adapter
type peerNode interface {
	ID() string
	Tell(msg manager.Message)
	Pending(requestID uint64) (manager.Requester, bool)
}

// NewPeerServerAdapter creates the adapter for the peer channel. Messages are
// translated, handed to the node and acknowledged immediately; replies to requests
// issued here are delivered to the waiting local requester.
// peers resolves a node ID to the link used to answer it.
func NewPeerServerAdapter(node peerNode, peers func(id string) (*remotePeer, bool)) IRPCServerAdapter {
	return &peerServerAdapter{node: node, peers: peers}
}

type peerServerAdapter struct {
	node  peerNode
	peers func(id string) (*remotePeer, bool)
}

func (a *peerServerAdapter) Handle(_ context.Context, req *common.Message) *common.Message {
	switch req.MsgType {
	case common.MsgTAccessGranted, common.MsgTAccessDenied, common.MsgTMgmtGranted, common.MsgTMgmtDenied:
		return a.handleReply(req)
	case common.MsgTAccessRelease:
		// releases carry no reply, so the sender need not be known
		a.node.Tell(manager.AccessRelease{Resource: req.Resource, Access: req.AccessType(), Releaser: req.Requester})
		return common.NewSuccessResponse()
	}

	origin, ok := a.peers(req.Origin)
	if !ok {
		return common.NewErrorResponse(fmt.Sprintf("unknown peer %q", req.Origin))
	}

	switch req.MsgType {
	case common.MsgTAccessRequest:
		a.node.Tell(manager.AccessRequest{
			Resource:  req.Resource,
			Kind:      req.RequestKind(),
			Requester: a.requester(req, origin),
		})
	case common.MsgTMgmtRequest:
		a.node.Tell(manager.ManagementRequest{
			Resource:  req.Resource,
			Kind:      req.ManagementKind(),
			Requester: a.requester(req, origin),
		})
	case common.MsgTWhoHasQuery:
		a.node.Tell(manager.WhoHasQuery{Resource: req.Resource, Requester: req.Requester, ReplyTo: origin})
	case common.MsgTWhoHasResponse:
		a.node.Tell(manager.WhoHasResponse{Resource: req.Resource, Requester: req.Requester, Owns: req.Ok, From: origin})
	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC PeerAdapter - Unsupported message type: %s", req.MsgType))
	}
	return common.NewSuccessResponse()
}

func (a *peerServerAdapter) requester(req *common.Message, origin *remotePeer) *remoteRequester {
	return &remoteRequester{
		id:        req.Requester,
		origin:    req.Origin,
		requestID: req.RequestID,
		self:      a.node.ID(),
		peer:      origin,
	}
}

// handleReply delivers a reply that came back from the node that decided the request
func (a *peerServerAdapter) handleReply(req *common.Message) *common.Message {
	r, ok := a.node.Pending(req.RequestID)
	if !ok {
		// the request was already answered or the node restarted in between
		Logger.Warningf("[%s] no pending request %d for %s from %s", a.node.ID(), req.RequestID, req.MsgType, req.Origin)
		return common.NewSuccessResponse()
	}
	reply, err := decodeReply(req, r)
	if err != nil {
		return common.NewErrorResponse(err.Error())
	}
	r.Deliver(reply)
	return common.NewSuccessResponse()
}
