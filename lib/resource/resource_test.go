package resource

import (
	"encoding/json"
	"testing"
)

func TestLifecycle(t *testing.T) {
	r := New("printer")
	if r.IsEnabled() {
		t.Fatalf("new resource should start disabled")
	}

	r.Enable()
	if !r.IsEnabled() || r.Status() != StatusEnabled {
		t.Errorf("expected enabled, got %s", r.Status())
	}

	r.Disable()
	if r.IsEnabled() {
		t.Errorf("expected disabled, got %s", r.Status())
	}

	if r.String() != "printer(disabled)" {
		t.Errorf("unexpected string form %q", r.String())
	}
}

func TestStatusJSON(t *testing.T) {
	for _, s := range []Status{StatusEnabled, StatusDisabled} {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal %s: %v", s, err)
		}
		var back Status
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if back != s {
			t.Errorf("expected %s, got %s", s, back)
		}
	}

	var s Status
	if err := json.Unmarshal([]byte(`"paused"`), &s); err == nil {
		t.Errorf("expected error for unknown status")
	}
}

func TestFromNames(t *testing.T) {
	rs := FromNames("a", "b")
	if len(rs) != 2 || rs[0].Name() != "a" || rs[1].Name() != "b" {
		t.Errorf("unexpected resources %v", rs)
	}
}
