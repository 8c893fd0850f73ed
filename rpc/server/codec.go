package server

import (
	"fmt"

	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/ValentinKolb/dLock/rpc/common"
)

// encodePeerMessage converts a node message into its wire form. self is the ID of the
// sending node; it is used as origin for messages that are not tied to a request.
func encodePeerMessage(self string, msg manager.Message) (*common.Message, error) {
	switch m := msg.(type) {
	case manager.AccessRequest:
		c, err := correlation(m.Requester)
		if err != nil {
			return nil, err
		}
		return common.NewAccessRequest(m.Resource, m.Requester.ID(), m.Kind).
			Correlate(c.Origin(), c.RequestID()), nil

	case manager.AccessRelease:
		return common.NewReleaseRequest(m.Resource, m.Releaser, m.Access).Correlate(self, 0), nil

	case manager.ManagementRequest:
		c, err := correlation(m.Requester)
		if err != nil {
			return nil, err
		}
		return common.NewManagementRequest(m.Resource, m.Requester.ID(), m.Kind).
			Correlate(c.Origin(), c.RequestID()), nil

	case manager.WhoHasQuery:
		origin := self
		if m.ReplyTo != nil {
			origin = m.ReplyTo.ID()
		}
		return common.NewWhoHasQuery(m.Resource, m.Requester, origin), nil

	case manager.WhoHasResponse:
		origin := self
		if m.From != nil {
			origin = m.From.ID()
		}
		return common.NewWhoHasResponse(m.Resource, m.Requester, origin, m.Owns), nil

	default:
		return nil, fmt.Errorf("message %T cannot be sent to a peer", msg)
	}
}

// encodeReply converts a reply into its wire form. The request id routes it to the
// waiting requester at the origin node.
func encodeReply(self string, requestID uint64, reply manager.Reply) (*common.Message, error) {
	var msg *common.Message
	switch r := reply.(type) {
	case manager.AccessGranted:
		msg = common.NewAccessResponse(true, lockmgr.AccessDenialNone, nil)
		msg.Resource, msg.Kind = r.Request.Resource, uint8(r.Request.Kind)
	case manager.AccessDenied:
		msg = common.NewAccessResponse(false, r.Reason, nil)
		msg.Resource, msg.Kind = r.Request.Resource, uint8(r.Request.Kind)
	case manager.ManagementGranted:
		msg = common.NewManagementResponse(true, lockmgr.ManagementDenialNone, nil)
		msg.Resource, msg.Kind = r.Request.Resource, uint8(r.Request.Kind)
	case manager.ManagementDenied:
		msg = common.NewManagementResponse(false, r.Reason, nil)
		msg.Resource, msg.Kind = r.Request.Resource, uint8(r.Request.Kind)
	default:
		return nil, fmt.Errorf("unknown reply %T", reply)
	}
	return msg.Correlate(self, requestID), nil
}

// decodeReply rebuilds a reply addressed to the local requester r
func decodeReply(msg *common.Message, r manager.Requester) (manager.Reply, error) {
	access := manager.AccessRequest{Resource: msg.Resource, Kind: msg.RequestKind(), Requester: r}
	management := manager.ManagementRequest{Resource: msg.Resource, Kind: msg.ManagementKind(), Requester: r}

	switch msg.MsgType {
	case common.MsgTAccessGranted:
		return manager.AccessGranted{Request: access}, nil
	case common.MsgTAccessDenied:
		return manager.AccessDenied{Request: access, Reason: msg.AccessDenialReason()}, nil
	case common.MsgTMgmtGranted:
		return manager.ManagementGranted{Request: management}, nil
	case common.MsgTMgmtDenied:
		return manager.ManagementDenied{Request: management, Reason: msg.ManagementDenialReason()}, nil
	default:
		return nil, fmt.Errorf("%s is not a reply", msg.MsgType)
	}
}

func correlation(r manager.Requester) (manager.Correlated, error) {
	if r == nil {
		return nil, fmt.Errorf("request without requester")
	}
	c, ok := r.(manager.Correlated)
	if !ok {
		return nil, fmt.Errorf("requester %q (%T) cannot receive replies from another node", r.ID(), r)
	}
	return c, nil
}
