package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dLock/lib/audit"
	"github.com/ValentinKolb/dLock/lib/locator"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/resource"
	"github.com/ValentinKolb/dLock/lib/util"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// Logger is the logger of the manager package
var Logger = logger.GetLogger("manager")

// ErrStopped is returned by requests to a node whose message loop has ended
var ErrStopped = errors.New("node is stopped")

// Node is a lock manager. All of its state is owned by the goroutine running Run;
// other goroutines interact with it through Tell and the request helpers only.
type Node struct {
	id      string
	mailbox *util.MPSC[Message]
	done    chan struct{}
	once    sync.Once

	// owned by the message loop
	table   lockmgr.ILockTable[Requester]
	locator locator.ILocator[Peer, Message]
	peers   []Peer
	users   []string
	audit   *audit.Recorder

	// local requesters waiting for a reply, by request id
	pending *xsync.MapOf[uint64, *localRequester]
	nextID  atomic.Uint64
}

// NewNode creates a node. Events are recorded on sink (nil disables auditing).
// The node does not process messages until Run is called.
func NewNode(id string, sink audit.ISink) *Node {
	return &Node{
		id:      id,
		mailbox: util.NewMPSC[Message](),
		done:    make(chan struct{}),
		table:   lockmgr.NewLockTable[Requester](),
		locator: locator.NewLocator[Peer, Message](),
		audit:   audit.NewRecorder(id, sink),
		pending: xsync.NewMapOf[uint64, *localRequester](),
	}
}

// ID returns the node ID
func (n *Node) ID() string { return n.id }

// Tell enqueues a message. It never blocks; messages sent after Stop are dropped.
func (n *Node) Tell(msg Message) {
	if !n.post(msg) {
		Logger.Warningf("[%s] dropping %T, node is stopped", n.id, msg)
	}
}

func (n *Node) post(msg Message) bool {
	return n.mailbox.Push(msg)
}

// Run processes messages until ctx is done or Stop is called
func (n *Node) Run(ctx context.Context) error {
	defer n.once.Do(func() { close(n.done) })

	Logger.Infof("[%s] node started", n.id)
	recv := n.mailbox.Recv()
	for {
		select {
		case <-ctx.Done():
			n.mailbox.Close()
			Logger.Infof("[%s] node stopped: %v", n.id, ctx.Err())
			return nil
		case msg, ok := <-recv:
			if !ok {
				Logger.Infof("[%s] node stopped", n.id)
				return nil
			}
			n.handle(msg)
		}
	}
}

// Stop closes the mailbox. Messages already enqueued are still processed.
func (n *Node) Stop() {
	n.mailbox.Close()
}

// Done is closed when Run returns
func (n *Node) Done() <-chan struct{} {
	return n.done
}

// Pending returns the local requester waiting for the reply to a request.
// It is used to deliver replies that arrive from other nodes.
func (n *Node) Pending(requestID uint64) (Requester, bool) {
	r, ok := n.pending.Load(requestID)
	if !ok {
		return nil, false
	}
	return r, true
}

// --------------------------------------------------------------------------
// Bootstrap helpers
// --------------------------------------------------------------------------

// SetPeers replaces the peer list and waits until the node applied it
func (n *Node) SetPeers(ctx context.Context, peers []Peer) error {
	done := make(chan struct{})
	return n.await(ctx, SetPeers{Peers: peers, Done: done}, done)
}

// SetLocalUsers records the local users and waits until the node applied them
func (n *Node) SetLocalUsers(ctx context.Context, users []string) error {
	done := make(chan struct{})
	return n.await(ctx, SetLocalUsers{Users: users, Done: done}, done)
}

// SetLocalResources registers resources and waits until the node applied them
func (n *Node) SetLocalResources(ctx context.Context, resources []*resource.Resource) error {
	done := make(chan struct{})
	return n.await(ctx, SetLocalResources{Resources: resources, Done: done}, done)
}

func (n *Node) await(ctx context.Context, msg Message, done <-chan struct{}) error {
	if !n.post(msg) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-n.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see manager.IResourceManager)
// --------------------------------------------------------------------------

func (n *Node) RequestAccess(ctx context.Context, requester, name string, kind lockmgr.RequestKind) (bool, lockmgr.AccessDenialReason, error) {
	if !kind.Valid() {
		return false, lockmgr.AccessDenialNone, fmt.Errorf("invalid request kind %d", kind)
	}

	r := n.newRequester(requester)
	reply, err := r.wait(ctx, AccessRequest{Resource: name, Kind: kind, Requester: r})
	if err != nil {
		return false, lockmgr.AccessDenialNone, err
	}

	switch rep := reply.(type) {
	case AccessGranted:
		return true, lockmgr.AccessDenialNone, nil
	case AccessDenied:
		return false, rep.Reason, nil
	default:
		return false, lockmgr.AccessDenialNone, fmt.Errorf("unexpected reply %T to access request", reply)
	}
}

func (n *Node) ReleaseAccess(_ context.Context, requester, name string, access lockmgr.AccessType) error {
	if access != lockmgr.AccessRead && access != lockmgr.AccessWrite {
		return fmt.Errorf("invalid access type %d", access)
	}
	if !n.post(AccessRelease{Resource: name, Access: access, Releaser: requester}) {
		return ErrStopped
	}
	return nil
}

func (n *Node) RequestManagement(ctx context.Context, requester, name string, kind lockmgr.ManagementKind) (bool, lockmgr.ManagementDenialReason, error) {
	if !kind.Valid() {
		return false, lockmgr.ManagementDenialNone, fmt.Errorf("invalid management kind %d", kind)
	}

	r := n.newRequester(requester)
	reply, err := r.wait(ctx, ManagementRequest{Resource: name, Kind: kind, Requester: r})
	if err != nil {
		return false, lockmgr.ManagementDenialNone, err
	}

	switch rep := reply.(type) {
	case ManagementGranted:
		return true, lockmgr.ManagementDenialNone, nil
	case ManagementDenied:
		return false, rep.Reason, nil
	default:
		return false, lockmgr.ManagementDenialNone, fmt.Errorf("unexpected reply %T to management request", reply)
	}
}

func (n *Node) Status(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if !n.post(SnapshotRequest{Reply: reply}) {
		return Snapshot{}, ErrStopped
	}
	select {
	case s := <-reply:
		return s, nil
	case <-n.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// --------------------------------------------------------------------------
// Local requesters
// --------------------------------------------------------------------------

// localRequester is a request issued through one of the request helpers.
// It stays registered in the pending map until its reply arrives.
type localRequester struct {
	id        string
	node      *Node
	requestID uint64

	mu        sync.Mutex
	replies   chan Reply
	abandoned bool
}

func (n *Node) newRequester(id string) *localRequester {
	r := &localRequester{
		id:        id,
		node:      n,
		requestID: n.nextID.Add(1),
		replies:   make(chan Reply, 1),
	}
	n.pending.Store(r.requestID, r)
	return r
}

func (r *localRequester) ID() string        { return r.id }
func (r *localRequester) Origin() string    { return r.node.id }
func (r *localRequester) RequestID() uint64 { return r.requestID }

func (r *localRequester) Deliver(reply Reply) {
	r.node.pending.Delete(r.requestID)

	r.mu.Lock()
	abandoned := r.abandoned
	if !abandoned {
		select {
		case r.replies <- reply:
		default:
			Logger.Warningf("[%s] duplicate reply %T for request %d", r.node.id, reply, r.requestID)
		}
	}
	r.mu.Unlock()

	if abandoned {
		r.node.releaseAbandoned(reply)
	}
}

// wait sends msg and blocks until the reply arrives
func (r *localRequester) wait(ctx context.Context, msg Message) (Reply, error) {
	if !r.node.post(msg) {
		r.node.pending.Delete(r.requestID)
		return nil, ErrStopped
	}

	select {
	case reply := <-r.replies:
		return reply, nil
	case <-r.node.done:
		r.abandon()
		return nil, ErrStopped
	case <-ctx.Done():
		r.abandon()
		return nil, ctx.Err()
	}
}

// abandon marks the request as no longer awaited. A grant that arrives
// afterwards (or arrived concurrently) is released again.
func (r *localRequester) abandon() {
	r.mu.Lock()
	r.abandoned = true
	var late Reply
	select {
	case late = <-r.replies:
	default:
	}
	r.mu.Unlock()

	if late != nil {
		r.node.releaseAbandoned(late)
	}
}

func (n *Node) releaseAbandoned(reply Reply) {
	granted, ok := reply.(AccessGranted)
	if !ok {
		return
	}
	req := granted.Request
	Logger.Infof("[%s] releasing %s on %s granted after the requester gave up", n.id, req.Kind.Access(), req.Resource)
	n.post(AccessRelease{Resource: req.Resource, Access: req.Kind.Access(), Releaser: req.Requester.ID()})
}
