// Package resource defines the lockable resource entity: a name plus a two-state
// enabled/disabled flag. Resources are created at bootstrap by the node that owns
// them and live as long as that node.
package resource

import "fmt"

// Status is the lifecycle state of a resource
type Status uint8

const (
	StatusDisabled Status = iota
	StatusEnabled
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusEnabled:
		return "enabled"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so Status shows up as a string in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "enabled":
		*s = StatusEnabled
	case "disabled":
		*s = StatusDisabled
	default:
		return fmt.Errorf("unknown resource status: %s", text)
	}
	return nil
}

// Resource is a named, lockable entity. It is not safe for concurrent use;
// the owning node mutates it from its message loop only.
type Resource struct {
	name   string
	status Status
}

// New creates a disabled resource. The owning node enables it when registering it.
func New(name string) *Resource {
	return &Resource{name: name, status: StatusDisabled}
}

// FromNames creates one resource per name
func FromNames(names ...string) []*Resource {
	out := make([]*Resource, 0, len(names))
	for _, name := range names {
		out = append(out, New(name))
	}
	return out
}

func (r *Resource) Name() string    { return r.name }
func (r *Resource) Status() Status  { return r.status }
func (r *Resource) IsEnabled() bool { return r.status == StatusEnabled }
func (r *Resource) Enable()         { r.status = StatusEnabled }
func (r *Resource) Disable()        { r.status = StatusDisabled }
func (r *Resource) String() string  { return fmt.Sprintf("%s(%s)", r.name, r.status) }
