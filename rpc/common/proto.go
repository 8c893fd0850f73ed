package common

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dLock/lib/lockmgr"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for requests, responses and peer traffic.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Resource  string `json:"resource,omitempty"`   // Used for: all requests and peer messages
	Requester string `json:"requester,omitempty"`  // Holder identity of access and management requests, releaser of releases
	Origin    string `json:"origin,omitempty"`     // Peer messages: ID of the node that sent the message or issued the request
	RequestID uint64 `json:"request_id,omitempty"` // Peer messages: request id at the origin node, used to route replies

	// Kind is a lockmgr.RequestKind (access), lockmgr.AccessType (release) or lockmgr.ManagementKind (management)
	Kind uint8 `json:"kind,omitempty"`
	// Reason is a lockmgr.AccessDenialReason or lockmgr.ManagementDenialReason
	Reason uint8 `json:"reason,omitempty"`

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: WhoHas responses
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: Status responses (json encoded snapshot)
}

// RequestKind interprets Kind as the kind of an access request
func (m *Message) RequestKind() lockmgr.RequestKind {
	return lockmgr.RequestKind(m.Kind)
}

// AccessType interprets Kind as the access type of a release
func (m *Message) AccessType() lockmgr.AccessType {
	return lockmgr.AccessType(m.Kind)
}

// ManagementKind interprets Kind as the kind of a management request
func (m *Message) ManagementKind() lockmgr.ManagementKind {
	return lockmgr.ManagementKind(m.Kind)
}

// AccessDenialReason interprets Reason for AccessDenied messages
func (m *Message) AccessDenialReason() lockmgr.AccessDenialReason {
	return lockmgr.AccessDenialReason(m.Reason)
}

// ManagementDenialReason interprets Reason for MgmtDenied messages
func (m *Message) ManagementDenialReason() lockmgr.ManagementDenialReason {
	return lockmgr.ManagementDenialReason(m.Reason)
}

// Correlate sets the origin node and request id and returns the message
func (m *Message) Correlate(origin string, requestID uint64) *Message {
	m.Origin = origin
	m.RequestID = requestID
	return m
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewAccessRequest creates a new AccessRequest request
func NewAccessRequest(resource, requester string, kind lockmgr.RequestKind) *Message {
	return &Message{
		MsgType:   MsgTAccessRequest,
		Resource:  resource,
		Requester: requester,
		Kind:      uint8(kind),
	}
}

// NewAccessResponse creates the reply to an access request: AccessGranted,
// AccessDenied or an error response
func NewAccessResponse(granted bool, reason lockmgr.AccessDenialReason, err error) *Message {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if granted {
		return &Message{MsgType: MsgTAccessGranted}
	}
	return &Message{
		MsgType: MsgTAccessDenied,
		Reason:  uint8(reason),
	}
}

// NewReleaseRequest creates a new AccessRelease request
func NewReleaseRequest(resource, releaser string, access lockmgr.AccessType) *Message {
	return &Message{
		MsgType:   MsgTAccessRelease,
		Resource:  resource,
		Requester: releaser,
		Kind:      uint8(access),
	}
}

// NewManagementRequest creates a new MgmtRequest request
func NewManagementRequest(resource, requester string, kind lockmgr.ManagementKind) *Message {
	return &Message{
		MsgType:   MsgTMgmtRequest,
		Resource:  resource,
		Requester: requester,
		Kind:      uint8(kind),
	}
}

// NewManagementResponse creates the reply to a management request: MgmtGranted,
// MgmtDenied or an error response
func NewManagementResponse(granted bool, reason lockmgr.ManagementDenialReason, err error) *Message {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if granted {
		return &Message{MsgType: MsgTMgmtGranted}
	}
	return &Message{
		MsgType: MsgTMgmtDenied,
		Reason:  uint8(reason),
	}
}

// NewWhoHasQuery creates a new WhoHasQuery peer message
func NewWhoHasQuery(resource, requester, origin string) *Message {
	return &Message{
		MsgType:   MsgTWhoHasQuery,
		Resource:  resource,
		Requester: requester,
		Origin:    origin,
	}
}

// NewWhoHasResponse creates a new WhoHasResponse peer message
func NewWhoHasResponse(resource, requester, origin string, owns bool) *Message {
	return &Message{
		MsgType:   MsgTWhoHasResponse,
		Resource:  resource,
		Requester: requester,
		Origin:    origin,
		Ok:        owns,
	}
}

// NewStatusRequest creates a new Status request
func NewStatusRequest() *Message {
	return &Message{
		MsgType: MsgTStatus,
	}
}

// NewStatusResponse creates a new Status response
func NewStatusResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTStatus,
		Meta:    meta,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewSuccessResponse creates a new Success response (acknowledgement)
func NewSuccessResponse() *Message {
	return &Message{
		MsgType: MsgTSuccess,
	}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:        "success",
	MsgTError:          "error",
	MsgTAccessRequest:  "accessRequest",
	MsgTAccessGranted:  "accessGranted",
	MsgTAccessDenied:   "accessDenied",
	MsgTAccessRelease:  "accessRelease",
	MsgTMgmtRequest:    "mgmtRequest",
	MsgTMgmtGranted:    "mgmtGranted",
	MsgTMgmtDenied:     "mgmtDenied",
	MsgTWhoHasQuery:    "whoHasQuery",
	MsgTWhoHasResponse: "whoHasResponse",
	MsgTStatus:         "status",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if s, ok := messageTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "unknown" {
		*t = MsgTUnknown
		return nil
	}
	for mt, name := range messageTypeNames {
		if name == s {
			*t = mt
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation (acknowledgement)
	MsgTError               // Indicates an error occurred

	// Access operations

	MsgTAccessRequest // Request read or write access
	MsgTAccessGranted // Access was granted
	MsgTAccessDenied  // Access was denied, see Reason
	MsgTAccessRelease // Release one access entry

	// Management operations

	MsgTMgmtRequest // Enable or disable a resource
	MsgTMgmtGranted // Management request was granted
	MsgTMgmtDenied  // Management request was denied, see Reason

	// Discovery (peer channel only)

	MsgTWhoHasQuery    // Does the receiver host the resource?
	MsgTWhoHasResponse // Answer to a WhoHasQuery, Ok is set if the sender hosts it

	// Introspection

	MsgTStatus // Snapshot of the node state
)
