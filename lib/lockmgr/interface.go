package lockmgr

import (
	"fmt"

	"github.com/ValentinKolb/dLock/lib/resource"
)

// ILockTable holds the lock state of every resource hosted by one node.
// P is the payload stored with queued requests (typically the requester to reply to).
//
// Implementations are not safe for concurrent use. A table belongs to exactly one
// node and is only touched from that node's message loop.
type ILockTable[P any] interface {
	// Register adds a locally hosted resource, enables it and initializes empty lock state.
	// Returns false if a resource with the same name is already registered.
	Register(res *resource.Resource) bool

	// Has reports whether the resource is hosted by this table
	Has(name string) bool

	// Names returns the names of all registered resources in registration order
	Names() []string

	// Acquire decides an access request: grant, deny with a reason, or enqueue.
	Acquire(name, holder string, kind RequestKind, payload P) AcquireResult

	// Release removes one matching holder entry and wakes whoever may proceed next.
	Release(name, holder string, access AccessType) ReleaseResult[P]

	// Disable starts (or completes) the quiesce protocol for a resource.
	Disable(name, holder string, payload P) DisableResult[P]

	// Enable clears a pending disable and sets the resource to enabled.
	// Returns true if the status changed.
	Enable(name string) bool

	// State returns a copy of the resource's lock state
	State(name string) (State, bool)
}

// --------------------------------------------------------------------------
// Request kinds
// --------------------------------------------------------------------------

// AccessType is the kind of lock held on a resource
type AccessType uint8

const (
	AccessUnknown AccessType = iota
	AccessRead
	AccessWrite
)

func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "unknown"
	}
}

// ParseAccessType converts "read" or "write" to an AccessType
func ParseAccessType(s string) (AccessType, error) {
	switch s {
	case "read", "r":
		return AccessRead, nil
	case "write", "w":
		return AccessWrite, nil
	default:
		return AccessUnknown, fmt.Errorf("invalid access type %q (expected read or write)", s)
	}
}

// RequestKind combines an access type with a blocking mode
type RequestKind uint8

const (
	KindUnknown RequestKind = iota
	ReadBlocking
	ReadNonblocking
	WriteBlocking
	WriteNonblocking
)

// NewRequestKind builds the kind for the given access type and blocking mode
func NewRequestKind(access AccessType, blocking bool) RequestKind {
	switch {
	case access == AccessRead && blocking:
		return ReadBlocking
	case access == AccessRead:
		return ReadNonblocking
	case access == AccessWrite && blocking:
		return WriteBlocking
	case access == AccessWrite:
		return WriteNonblocking
	default:
		return KindUnknown
	}
}

// Valid reports whether k is one of the four request kinds
func (k RequestKind) Valid() bool {
	return k >= ReadBlocking && k <= WriteNonblocking
}

// Access returns the access type requested by k
func (k RequestKind) Access() AccessType {
	switch k {
	case ReadBlocking, ReadNonblocking:
		return AccessRead
	case WriteBlocking, WriteNonblocking:
		return AccessWrite
	default:
		return AccessUnknown
	}
}

// Blocking reports whether a request of this kind waits in the queue instead of failing
func (k RequestKind) Blocking() bool {
	return k == ReadBlocking || k == WriteBlocking
}

func (k RequestKind) String() string {
	switch k {
	case ReadBlocking:
		return "ReadBlocking"
	case ReadNonblocking:
		return "ReadNonblocking"
	case WriteBlocking:
		return "WriteBlocking"
	case WriteNonblocking:
		return "WriteNonblocking"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k RequestKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *RequestKind) UnmarshalText(text []byte) error {
	for c := ReadBlocking; c <= WriteNonblocking; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown request kind: %s", text)
}

// ManagementKind is the kind of administrative request
type ManagementKind uint8

const (
	ManageUnknown ManagementKind = iota
	ManageEnable
	ManageDisable
)

func (m ManagementKind) String() string {
	switch m {
	case ManageEnable:
		return "Enable"
	case ManageDisable:
		return "Disable"
	default:
		return "Unknown"
	}
}

// Valid reports whether m is Enable or Disable
func (m ManagementKind) Valid() bool {
	return m == ManageEnable || m == ManageDisable
}

// --------------------------------------------------------------------------
// Denial reasons
// --------------------------------------------------------------------------

// AccessDenialReason explains an AccessDenied reply
type AccessDenialReason uint8

const (
	AccessDenialNone AccessDenialReason = iota
	ResourceDisabled
	ResourceBusy
	AccessResourceNotFound
)

func (r AccessDenialReason) String() string {
	switch r {
	case ResourceDisabled:
		return "ResourceDisabled"
	case ResourceBusy:
		return "ResourceBusy"
	case AccessResourceNotFound:
		return "ResourceNotFound"
	default:
		return "None"
	}
}

// ManagementDenialReason explains a ManagementDenied reply
type ManagementDenialReason uint8

const (
	ManagementDenialNone ManagementDenialReason = iota
	AccessHeldByRequester
	ManagementResourceNotFound
)

func (r ManagementDenialReason) String() string {
	switch r {
	case AccessHeldByRequester:
		return "AccessHeldByRequester"
	case ManagementResourceNotFound:
		return "ResourceNotFound"
	default:
		return "None"
	}
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// Outcome is the immediate result of a decision
type Outcome uint8

const (
	Granted Outcome = iota + 1
	Denied
	Queued
)

func (o Outcome) String() string {
	switch o {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Queued:
		return "queued"
	default:
		return "unknown"
	}
}

// AcquireResult is the decision for one access request
type AcquireResult struct {
	Outcome Outcome
	Reason  AccessDenialReason // set if Outcome == Denied
}

// Waiter is a queued access request
type Waiter[P any] struct {
	Holder  string
	Kind    RequestKind
	Payload P
}

// DisableWaiter is a disable request waiting for the resource to become idle
type DisableWaiter[P any] struct {
	Holder  string
	Payload P
}

// ReleaseResult reports everything a release caused
type ReleaseResult[P any] struct {
	// Released is false if the holder had no matching entry (the release was ignored)
	Released bool
	// Disabled is true if this release completed a pending disable
	Disabled bool
	// Woken are the queued requests granted by this release, in grant order
	Woken []Waiter[P]
	// DisableGranted are the disable requests completed by this release, in FIFO order
	DisableGranted []DisableWaiter[P]
}

// DisableResult reports the decision for a disable request
type DisableResult[P any] struct {
	Outcome Outcome                // Granted, Denied or Queued
	Reason  ManagementDenialReason // set if Outcome == Denied
	// Flushed are the waiters removed from the queue; each must be denied with ResourceDisabled
	Flushed []Waiter[P]
	// Disabled is true if the resource transitioned to disabled during this call
	Disabled bool
}

// --------------------------------------------------------------------------
// State snapshot
// --------------------------------------------------------------------------

// QueuedRequest describes one waiter in a State snapshot
type QueuedRequest struct {
	Holder string      `json:"holder"`
	Kind   RequestKind `json:"kind"`
}

// State is a copy of one resource's lock state
type State struct {
	Name           string          `json:"name"`
	Status         resource.Status `json:"status"`
	Readers        []string        `json:"readers,omitempty"`
	Writers        []string        `json:"writers,omitempty"`
	Queue          []QueuedRequest `json:"queue,omitempty"`
	PendingDisable bool            `json:"pending_disable,omitempty"`
	DisableWaiters []string        `json:"disable_waiters,omitempty"`
}

// Idle reports whether nobody holds the resource
func (s State) Idle() bool {
	return len(s.Readers) == 0 && len(s.Writers) == 0
}
