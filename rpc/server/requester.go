package server

import (
	"github.com/ValentinKolb/dLock/lib/manager"
)

// remoteRequester stands in for a requester waiting at another node.
// Replies are sent back to the origin node over its peer link.
type remoteRequester struct {
	id        string
	origin    string
	requestID uint64
	self      string
	peer      *remotePeer
}

func (r *remoteRequester) ID() string        { return r.id }
func (r *remoteRequester) Origin() string    { return r.origin }
func (r *remoteRequester) RequestID() uint64 { return r.requestID }

func (r *remoteRequester) Deliver(reply manager.Reply) {
	msg, err := encodeReply(r.self, r.requestID, reply)
	if err != nil {
		Logger.Errorf("dropping reply for request %d of %s: %v", r.requestID, r.origin, err)
		return
	}
	r.peer.send(msg)
}
