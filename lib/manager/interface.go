package manager

import (
	"context"

	"github.com/ValentinKolb/dLock/lib/lockmgr"
)

// IResourceManager is the request/response view of a lock manager node.
// It is implemented by the node itself and by the RPC client.
type IResourceManager interface {
	// RequestAccess asks for read or write access to a resource. It returns when the
	// owning node has decided: granted, or denied with a reason. Blocking kinds may
	// wait in the resource's queue until then.
	RequestAccess(ctx context.Context, requester, resource string, kind lockmgr.RequestKind) (bool, lockmgr.AccessDenialReason, error)

	// ReleaseAccess releases one access entry held by requester. Releases have no reply;
	// a release of an access that is not held is ignored by the owning node.
	ReleaseAccess(ctx context.Context, requester, resource string, access lockmgr.AccessType) error

	// RequestManagement asks to enable or disable a resource. A disable returns once
	// the resource is quiescent and disabled.
	RequestManagement(ctx context.Context, requester, resource string, kind lockmgr.ManagementKind) (bool, lockmgr.ManagementDenialReason, error)

	// Status returns a snapshot of the node's state
	Status(ctx context.Context) (Snapshot, error)
}

// Peer is another manager node. Tell must not block; messages sent to one peer
// from one sender are processed in send order.
type Peer interface {
	ID() string
	Tell(msg Message)
}

// Requester is the recipient of the reply to an access or management request.
// Deliver is called from a node's message loop and must not block.
type Requester interface {
	// ID is the holder identity used for reentrancy and release matching
	ID() string
	Deliver(reply Reply)
}

// Correlated is implemented by requesters whose replies may have to travel back to
// another node. Origin is the ID of the node the request was issued at, RequestID
// identifies the request there (see Node.Pending).
type Correlated interface {
	Origin() string
	RequestID() uint64
}
