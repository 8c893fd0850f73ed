// Package manager implements a lock manager node: a single goroutine that owns a
// lock table and a resource locator and processes messages one at a time.
//
// # Message loop
//
// Everything a node does is triggered by a Message taken from its mailbox, an
// unbounded FIFO queue. Tell enqueues without blocking. Run takes one message at
// a time and processes it to completion before taking the next one, so the lock
// table, the locator and the peer list are never accessed concurrently. Messages
// of an unknown type and panics while handling a message are recorded as protocol
// errors; the loop continues with the next message.
//
// # Routing
//
// Access, release and management requests are routed by resource name:
//
//   - resources hosted by the node are decided by its lock table
//   - resources with a known owner are forwarded to that peer
//   - for unknown resources a discovery round is started: the message is parked
//     and a WhoHasQuery is sent to every peer. The first peer answering with
//     Owns set is cached as the owner and receives all parked messages. If every
//     peer answers negatively the parked requests are denied with ResourceNotFound
//     and parked releases are dropped.
//
// The owner cache is never invalidated. Discovery has no timeout.
//
// # Replies
//
// Replies are delivered to the Requester carried by a request. The request helpers
// of IResourceManager (RequestAccess, RequestManagement) create a local requester,
// send the request and wait for the reply. Local requesters also implement
// Correlated; a transport forwarding a request to another process sends Origin and
// RequestID along and hands the reply to Pending(RequestID) when it comes back.
//
// A caller that stops waiting (context canceled) does not withdraw its request. If
// the request is granted later the node releases the access again.
//
// # Example
//
//	n1 := manager.NewNode("n1", audit.NewLoggerSink())
//	n2 := manager.NewNode("n2", audit.NewLoggerSink())
//	go n1.Run(ctx)
//	go n2.Run(ctx)
//
//	_ = n1.SetPeers(ctx, []manager.Peer{n2})
//	_ = n2.SetPeers(ctx, []manager.Peer{n1})
//	_ = n2.SetLocalResources(ctx, resource.FromNames("printer"))
//
//	// discovered on n2 and decided there
//	granted, reason, err := n1.RequestAccess(ctx, "alice", "printer", lockmgr.WriteBlocking)
package manager
