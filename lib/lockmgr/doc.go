// Package lockmgr implements the per-node lock table of the resource lock service:
// reentrant read/write locks with a FIFO wait queue per resource, plus the quiesce
// protocol used to disable a resource gracefully.
//
// The table is a pure state machine. It never sends messages itself; every call
// returns what happened (granted, denied with a reason, queued, woken waiters,
// flushed waiters) and the owning node turns that into replies. A table is owned by
// exactly one node and is only touched from that node's message loop, so it carries
// no locks of its own.
//
// Decision Rules (resource enabled and not pending disable):
//
//   - Read: granted if there is no writer, if the requester is the writer, or if
//     the requester already reads (reentrancy).
//
//   - Write: granted if nobody holds the resource, if the requester is the writer
//     (reentrancy), or if the requester is the only identity among the readers
//     (upgrade, checked with a scan over every reader entry).
//
//   - Otherwise blocking requests are queued and nonblocking requests are denied
//     with ResourceBusy. A disabled or quiescing resource denies every request with
//     ResourceDisabled.
//
// Release:
//
//	A release removes one matching holder entry. Releases for locks that are not
//	held are reported as ignored. When the last holder leaves, a pending disable
//	completes (all disable waiters are granted in order) or the queue head is woken:
//	a run of consecutive reads at once, or a single write.
//
// Quiesce:
//
//	Disable is denied with AccessHeldByRequester when the requester holds the
//	resource. Otherwise the whole wait queue is flushed (the caller denies every
//	flushed waiter with ResourceDisabled) and the resource is disabled immediately
//	if idle, or as soon as the last holder releases. Enable clears a pending disable
//	and enables the resource unconditionally.
//
// Usage Example:
//
//	table := lockmgr.NewLockTable[string]()
//	table.Register(resource.New("printer"))
//
//	res := table.Acquire("printer", "alice", lockmgr.WriteBlocking, "reply-to-alice")
//	// res.Outcome == lockmgr.Granted
//
//	res = table.Acquire("printer", "bob", lockmgr.ReadBlocking, "reply-to-bob")
//	// res.Outcome == lockmgr.Queued
//
//	rel := table.Release("printer", "alice", lockmgr.AccessWrite)
//	// rel.Woken[0].Payload == "reply-to-bob"
package lockmgr
