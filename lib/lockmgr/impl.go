package lockmgr

import (
	"github.com/ValentinKolb/dLock/lib/resource"
)

// lockState is the per-resource lock record
type lockState[P any] struct {
	res            *resource.Resource
	readers        []string
	writers        []string
	waitQueue      []Waiter[P]
	pendingDisable bool
	disableWaiters []DisableWaiter[P]
}

// lockTableImpl implements ILockTable with a map indexed by resource name.
// Registration order is kept separately for stable status output.
type lockTableImpl[P any] struct {
	states map[string]*lockState[P]
	order  []string
}

// NewLockTable creates an empty lock table
func NewLockTable[P any]() ILockTable[P] {
	return &lockTableImpl[P]{
		states: make(map[string]*lockState[P]),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see lockmgr.ILockTable)
// --------------------------------------------------------------------------

func (t *lockTableImpl[P]) Register(res *resource.Resource) bool {
	if _, ok := t.states[res.Name()]; ok {
		return false
	}
	res.Enable()
	t.states[res.Name()] = &lockState[P]{res: res}
	t.order = append(t.order, res.Name())
	return true
}

func (t *lockTableImpl[P]) Has(name string) bool {
	_, ok := t.states[name]
	return ok
}

func (t *lockTableImpl[P]) Names() []string {
	return append([]string(nil), t.order...)
}

func (t *lockTableImpl[P]) Acquire(name, holder string, kind RequestKind, payload P) AcquireResult {
	st, ok := t.states[name]
	if !ok {
		return AcquireResult{Outcome: Denied, Reason: AccessResourceNotFound}
	}

	// no new grants while disabled or quiescing, regardless of blocking mode
	if st.pendingDisable || !st.res.IsEnabled() {
		return AcquireResult{Outcome: Denied, Reason: ResourceDisabled}
	}

	if st.grantable(holder, kind.Access()) {
		st.grant(holder, kind.Access())
		return AcquireResult{Outcome: Granted}
	}

	// blocking and nonblocking requests share the check above and only differ here
	if kind.Blocking() {
		st.waitQueue = append(st.waitQueue, Waiter[P]{Holder: holder, Kind: kind, Payload: payload})
		return AcquireResult{Outcome: Queued}
	}
	return AcquireResult{Outcome: Denied, Reason: ResourceBusy}
}

func (t *lockTableImpl[P]) Release(name, holder string, access AccessType) ReleaseResult[P] {
	var result ReleaseResult[P]

	st, ok := t.states[name]
	if !ok {
		return result
	}

	switch access {
	case AccessRead:
		st.readers, result.Released = removeFirst(st.readers, holder)
	case AccessWrite:
		st.writers, result.Released = removeFirst(st.writers, holder)
	}

	if !result.Released || !st.idle() {
		return result
	}

	if st.pendingDisable {
		st.res.Disable()
		st.pendingDisable = false
		result.Disabled = true
		result.DisableGranted = st.disableWaiters
		st.disableWaiters = nil
		return result
	}

	result.Woken = st.drain()
	return result
}

func (t *lockTableImpl[P]) State(name string) (State, bool) {
	st, ok := t.states[name]
	if !ok {
		return State{}, false
	}

	s := State{
		Name:           name,
		Status:         st.res.Status(),
		Readers:        append([]string(nil), st.readers...),
		Writers:        append([]string(nil), st.writers...),
		PendingDisable: st.pendingDisable,
	}
	for _, w := range st.waitQueue {
		s.Queue = append(s.Queue, QueuedRequest{Holder: w.Holder, Kind: w.Kind})
	}
	for _, w := range st.disableWaiters {
		s.DisableWaiters = append(s.DisableWaiters, w.Holder)
	}
	return s, true
}

// --------------------------------------------------------------------------
// Decision helpers
// --------------------------------------------------------------------------

// grantable evaluates the read and write rules for an enabled resource
func (st *lockState[P]) grantable(holder string, access AccessType) bool {
	switch access {
	case AccessRead:
		return len(st.writers) == 0 ||
			st.soleWriter(holder) ||
			contains(st.readers, holder)

	case AccessWrite:
		if st.idle() {
			return true
		}
		// reentrant write
		if st.soleWriter(holder) {
			return true
		}
		// upgrade: the requester is the only identity among the readers
		return contains(st.readers, holder) &&
			onlyHolder(st.readers, holder) &&
			(len(st.writers) == 0 || st.soleWriter(holder))

	default:
		return false
	}
}

func (st *lockState[P]) grant(holder string, access AccessType) {
	if access == AccessRead {
		st.readers = append(st.readers, holder)
	} else {
		st.writers = append(st.writers, holder)
	}
}

// soleWriter reports whether holder is the writer. writers never holds two identities.
func (st *lockState[P]) soleWriter(holder string) bool {
	return len(st.writers) > 0 && st.writers[0] == holder
}

func (st *lockState[P]) idle() bool {
	return len(st.readers) == 0 && len(st.writers) == 0
}

// drain grants the head of the wait queue of an idle resource: a run of reads
// is granted together, a write is granted alone.
func (st *lockState[P]) drain() []Waiter[P] {
	if len(st.waitQueue) == 0 {
		return nil
	}

	head := st.waitQueue[0]
	if head.Kind.Access() == AccessWrite {
		st.waitQueue = st.waitQueue[1:]
		st.grant(head.Holder, AccessWrite)
		return []Waiter[P]{head}
	}

	n := 0
	for n < len(st.waitQueue) && st.waitQueue[n].Kind.Access() == AccessRead {
		st.grant(st.waitQueue[n].Holder, AccessRead)
		n++
	}
	woken := append([]Waiter[P](nil), st.waitQueue[:n]...)
	st.waitQueue = st.waitQueue[n:]
	return woken
}
