package audit

import (
	"fmt"
	"time"
)

// ISink receives the audit events of a node. Record is called from the node's
// message loop and must not block.
type ISink interface {
	Record(e Event)
}

// Event is one observable step of a node's decision making
type Event struct {
	Seq       uint64    `json:"seq"`
	Time      time.Time `json:"time"`
	Node      string    `json:"node"`
	Kind      Kind      `json:"kind"`
	Resource  string    `json:"resource,omitempty"`
	Requester string    `json:"requester,omitempty"`
	Peer      string    `json:"peer,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

func (e Event) String() string {
	s := fmt.Sprintf("#%d %s", e.Seq, e.Kind)
	if e.Resource != "" {
		s += " resource=" + e.Resource
	}
	if e.Requester != "" {
		s += " requester=" + e.Requester
	}
	if e.Peer != "" {
		s += " peer=" + e.Peer
	}
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	return s
}

// Kind identifies the type of an audit event
type Kind uint8

const (
	KindUnknown Kind = iota

	// bootstrap
	LocalResourceCreated
	PeersUpdated
	LocalUsersUpdated

	// access
	AccessRequestReceived
	AccessGranted
	AccessDenied
	AccessQueued
	AccessForwarded

	// release
	AccessReleaseReceived
	AccessReleased
	AccessReleaseIgnored
	AccessReleaseForwarded
	AccessReleaseDropped

	// management
	ManagementRequestReceived
	ManagementGranted
	ManagementDenied
	ManagementQueued
	ManagementForwarded
	ResourceStatusChanged

	// discovery
	DiscoveryStarted
	DiscoveryJoined
	WhoHasAnswered
	RemoteResourceDiscovered
	ResourceNotFound

	ProtocolError

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown:               "unknown",
	LocalResourceCreated:      "local_resource_created",
	PeersUpdated:              "peers_updated",
	LocalUsersUpdated:         "local_users_updated",
	AccessRequestReceived:     "access_request_received",
	AccessGranted:             "access_granted",
	AccessDenied:              "access_denied",
	AccessQueued:              "access_queued",
	AccessForwarded:           "access_forwarded",
	AccessReleaseReceived:     "access_release_received",
	AccessReleased:            "access_released",
	AccessReleaseIgnored:      "access_release_ignored",
	AccessReleaseForwarded:    "access_release_forwarded",
	AccessReleaseDropped:      "access_release_dropped",
	ManagementRequestReceived: "management_request_received",
	ManagementGranted:         "management_granted",
	ManagementDenied:          "management_denied",
	ManagementQueued:          "management_queued",
	ManagementForwarded:       "management_forwarded",
	ResourceStatusChanged:     "resource_status_changed",
	DiscoveryStarted:          "discovery_started",
	DiscoveryJoined:           "discovery_joined",
	WhoHasAnswered:            "who_has_answered",
	RemoteResourceDiscovered:  "remote_resource_discovered",
	ResourceNotFound:          "resource_not_found",
	ProtocolError:             "protocol_error",
}

func (k Kind) String() string {
	if k >= kindCount {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String
func ParseKind(s string) (Kind, error) {
	for k := Kind(0); k < kindCount; k++ {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown audit event kind: %s", s)
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
