package common

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageTypeJSON(t *testing.T) {
	for mt := MsgTUnknown; mt <= MsgTStatus; mt++ {
		data, err := json.Marshal(mt)
		require.NoError(t, err)

		var back MessageType
		require.NoError(t, json.Unmarshal(data, &back), "type %s", mt)
		assert.Equal(t, mt, back)
	}

	var mt MessageType
	assert.Error(t, json.Unmarshal([]byte(`"bogus"`), &mt))
	assert.Equal(t, `"accessRequest"`, mustJSON(t, MsgTAccessRequest))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestFactories(t *testing.T) {
	req := NewAccessRequest("R1", "alice", lockmgr.WriteNonblocking)
	assert.Equal(t, MsgTAccessRequest, req.MsgType)
	assert.Equal(t, lockmgr.WriteNonblocking, req.RequestKind())

	rel := NewReleaseRequest("R1", "alice", lockmgr.AccessRead)
	assert.Equal(t, lockmgr.AccessRead, rel.AccessType())

	mgmt := NewManagementRequest("R1", "admin", lockmgr.ManageDisable).Correlate("n1", 7)
	assert.Equal(t, lockmgr.ManageDisable, mgmt.ManagementKind())
	assert.Equal(t, "n1", mgmt.Origin)
	assert.Equal(t, uint64(7), mgmt.RequestID)

	assert.Equal(t, MsgTAccessGranted, NewAccessResponse(true, 0, nil).MsgType)
	denied := NewAccessResponse(false, lockmgr.ResourceBusy, nil)
	assert.Equal(t, MsgTAccessDenied, denied.MsgType)
	assert.Equal(t, lockmgr.ResourceBusy, denied.AccessDenialReason())
	failed := NewAccessResponse(false, 0, errors.New("boom"))
	assert.Equal(t, MsgTError, failed.MsgType)
	assert.Equal(t, "boom", failed.Err)

	mdenied := NewManagementResponse(false, lockmgr.AccessHeldByRequester, nil)
	assert.Equal(t, MsgTMgmtDenied, mdenied.MsgType)
	assert.Equal(t, lockmgr.AccessHeldByRequester, mdenied.ManagementDenialReason())

	resp := NewWhoHasResponse("R1", "alice", "n2", true)
	assert.True(t, resp.Ok)
	assert.Equal(t, "n2", resp.Origin)
}

func TestServerConfig(t *testing.T) {
	cfg := ServerConfig{
		NodeID:        "n1",
		Peers:         []PeerConfig{{ID: "n2", Endpoint: "localhost:9002"}},
		Resources:     []string{"R1", "R2"},
		TimeoutSecond: 5,
		LogLevel:      "info",
		Transport: ServerTransportConfig{
			Endpoint: "localhost:9001",
			TCPConf:  TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
	}

	s := cfg.String()
	assert.Contains(t, s, "n1")
	assert.Contains(t, s, "localhost:9002")
	assert.True(t, strings.Contains(s, "(disabled)"), "metrics and audit are disabled")

	peer := cfg.PeerClientConfig(cfg.Peers[0])
	assert.Equal(t, []string{"localhost:9002"}, peer.Transport.Endpoints)
	assert.Equal(t, 1, peer.Transport.RetryCount)
	assert.True(t, peer.Transport.TCPNoDelay)
	assert.Equal(t, 5, peer.TimeoutSecond)
}

func TestLogLevels(t *testing.T) {
	for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error"} {
		assert.True(t, ValidLogLevel(lvl), lvl)
	}
	assert.False(t, ValidLogLevel("verbose"))
	assert.Panics(t, func() { parseLogLevel("verbose") })
}
