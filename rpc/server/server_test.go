package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// In-process transport
// --------------------------------------------------------------------------

// loopback routes frames to the handler registered for an endpoint without sockets
type loopback struct {
	mu       sync.Mutex
	handlers map[string]transport.ServerHandleFunc
}

func newLoopback() *loopback {
	return &loopback{handlers: make(map[string]transport.ServerHandleFunc)}
}

func (l *loopback) lookup(endpoint string) transport.ServerHandleFunc {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handlers[endpoint]
}

type loopbackServer struct {
	net      *loopback
	handler  transport.ServerHandleFunc
	endpoint string
	stop     chan struct{}
	once     sync.Once
}

func (l *loopback) server() *loopbackServer {
	return &loopbackServer{net: l, stop: make(chan struct{})}
}

func (s *loopbackServer) RegisterHandler(h transport.ServerHandleFunc) { s.handler = h }

func (s *loopbackServer) Listen(config common.ServerConfig) error {
	s.endpoint = config.Transport.Endpoint
	s.net.mu.Lock()
	s.net.handlers[s.endpoint] = s.handler
	s.net.mu.Unlock()
	<-s.stop
	return nil
}

func (s *loopbackServer) Close() error {
	s.once.Do(func() {
		s.net.mu.Lock()
		delete(s.net.handlers, s.endpoint)
		s.net.mu.Unlock()
		close(s.stop)
	})
	return nil
}

type loopbackClient struct {
	net      *loopback
	endpoint string
}

func (l *loopback) client() transport.IRPCClientTransport {
	return &loopbackClient{net: l}
}

func (c *loopbackClient) Connect(config common.ClientConfig) error {
	c.endpoint = config.Transport.Endpoints[0]
	return nil
}

func (c *loopbackClient) Send(channel uint64, req []byte) ([]byte, error) {
	h := c.net.lookup(c.endpoint)
	if h == nil {
		return nil, fmt.Errorf("%s unreachable", c.endpoint)
	}
	return h(context.Background(), channel, req), nil
}

func (c *loopbackClient) Close() error { return nil }

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

var peerConfigs = []common.PeerConfig{{ID: "A", Endpoint: "a"}, {ID: "B", Endpoint: "b"}}

// startServer serves node id on the loopback network until the test ends
func startServer(t *testing.T, net *loopback, id string, resources ...string) {
	t.Helper()
	endpoint := map[string]string{"A": "a", "B": "b"}[id]

	config := common.ServerConfig{
		NodeID:        id,
		Peers:         peerConfigs,
		Resources:     resources,
		TimeoutSecond: 5,
		Transport:     common.ServerTransportConfig{Endpoint: endpoint},
	}
	s := NewRPCServer(config, manager.NewNode(id, nil), net.server(), serializer.NewBinarySerializer(), net.client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	require.Eventually(t, func() bool { return net.lookup(endpoint) != nil }, 5*time.Second, 5*time.Millisecond)
}

// call sends a client request to endpoint and decodes the response
func call(t *testing.T, net *loopback, endpoint string, req *common.Message) *common.Message {
	t.Helper()
	s := serializer.NewBinarySerializer()
	data, err := s.Serialize(*req)
	require.NoError(t, err)

	client := net.client()
	require.NoError(t, client.Connect(common.ClientConfig{Transport: common.ClientTransportConfig{Endpoints: []string{endpoint}}}))
	respData, err := client.Send(transport.ChannelClient, data)
	require.NoError(t, err)

	var resp common.Message
	require.NoError(t, s.Deserialize(respData, &resp))
	return &resp
}

func status(t *testing.T, net *loopback, endpoint string) manager.Snapshot {
	t.Helper()
	resp := call(t, net, endpoint, common.NewStatusRequest())
	require.Equal(t, common.MsgTStatus, resp.MsgType, resp.Err)
	var snapshot manager.Snapshot
	require.NoError(t, json.Unmarshal(resp.Meta, &snapshot))
	return snapshot
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestRemoteAccessAcrossNodes(t *testing.T) {
	r := require.New(t)
	net := newLoopback()
	startServer(t, net, "A", "R1")
	startServer(t, net, "B", "R2")

	// alice asks A for a resource hosted by B
	resp := call(t, net, "a", common.NewAccessRequest("R2", "alice", lockmgr.WriteBlocking))
	r.Equal(common.MsgTAccessGranted, resp.MsgType, resp.Err)

	resp = call(t, net, "b", common.NewAccessRequest("R2", "bob", lockmgr.WriteNonblocking))
	r.Equal(common.MsgTAccessDenied, resp.MsgType)
	r.Equal(lockmgr.ResourceBusy, resp.AccessDenialReason())

	// bob waits at B until alice releases through A
	granted := make(chan *common.Message, 1)
	go func() {
		granted <- call(t, net, "b", common.NewAccessRequest("R2", "bob", lockmgr.ReadBlocking))
	}()
	r.Eventually(func() bool {
		st, _ := status(t, net, "b").Resource("R2")
		return len(st.Queue) == 1
	}, 5*time.Second, 5*time.Millisecond)

	resp = call(t, net, "a", common.NewReleaseRequest("R2", "alice", lockmgr.AccessWrite))
	r.Equal(common.MsgTSuccess, resp.MsgType, resp.Err)

	select {
	case resp = <-granted:
		r.Equal(common.MsgTAccessGranted, resp.MsgType, resp.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("queued read was not granted")
	}

	// A remembers where R2 lives
	r.Equal("B", status(t, net, "a").Located["R2"])
}

func TestRemoteResourceNotFound(t *testing.T) {
	net := newLoopback()
	startServer(t, net, "A", "R1")
	startServer(t, net, "B", "R2")

	resp := call(t, net, "a", common.NewAccessRequest("R9", "alice", lockmgr.ReadBlocking))
	require.Equal(t, common.MsgTAccessDenied, resp.MsgType)
	require.Equal(t, lockmgr.AccessResourceNotFound, resp.AccessDenialReason())

	resp = call(t, net, "b", common.NewManagementRequest("R9", "admin", lockmgr.ManageDisable))
	require.Equal(t, common.MsgTMgmtDenied, resp.MsgType)
	require.Equal(t, lockmgr.ManagementResourceNotFound, resp.ManagementDenialReason())
}

func TestRemoteManagement(t *testing.T) {
	r := require.New(t)
	net := newLoopback()
	startServer(t, net, "A", "R1")
	startServer(t, net, "B", "R2")

	resp := call(t, net, "a", common.NewManagementRequest("R2", "admin", lockmgr.ManageDisable))
	r.Equal(common.MsgTMgmtGranted, resp.MsgType, resp.Err)

	resp = call(t, net, "a", common.NewAccessRequest("R2", "alice", lockmgr.ReadBlocking))
	r.Equal(common.MsgTAccessDenied, resp.MsgType)
	r.Equal(lockmgr.ResourceDisabled, resp.AccessDenialReason())

	resp = call(t, net, "a", common.NewManagementRequest("R2", "admin", lockmgr.ManageEnable))
	r.Equal(common.MsgTMgmtGranted, resp.MsgType, resp.Err)

	resp = call(t, net, "b", common.NewAccessRequest("R2", "alice", lockmgr.ReadNonblocking))
	r.Equal(common.MsgTAccessGranted, resp.MsgType, resp.Err)
}

func TestInvalidRequests(t *testing.T) {
	net := newLoopback()
	startServer(t, net, "A", "R1")

	tests := []struct {
		name string
		req  *common.Message
	}{
		{"missing requester", common.NewAccessRequest("R1", "", lockmgr.ReadBlocking)},
		{"invalid kind", common.NewAccessRequest("R1", "alice", lockmgr.KindUnknown)},
		{"invalid management kind", common.NewManagementRequest("R1", "admin", lockmgr.ManageUnknown)},
		{"peer message on client channel", common.NewWhoHasQuery("R1", "alice", "B")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := call(t, net, "a", tc.req)
			require.Equal(t, common.MsgTError, resp.MsgType)
			require.NotEmpty(t, resp.Err)
		})
	}
}

func TestPeerAdapterRejectsUnknownOrigin(t *testing.T) {
	node := manager.NewNode("A", nil)
	adapter := NewPeerServerAdapter(node, func(string) (*remotePeer, bool) { return nil, false })

	resp := adapter.Handle(context.Background(), common.NewWhoHasQuery("R1", "alice", "Z"))
	require.Equal(t, common.MsgTError, resp.MsgType)

	// replies to requests nobody waits for are acknowledged and dropped
	reply := common.NewAccessResponse(true, lockmgr.AccessDenialNone, nil).Correlate("B", 42)
	resp = adapter.Handle(context.Background(), reply)
	require.Equal(t, common.MsgTSuccess, resp.MsgType)
}

func TestCodecRoundTrip(t *testing.T) {
	r := require.New(t)
	origin := &remotePeer{id: "B"}

	req := manager.AccessRequest{
		Resource:  "R1",
		Kind:      lockmgr.WriteBlocking,
		Requester: &remoteRequester{id: "alice", origin: "C", requestID: 7, peer: origin},
	}
	msg, err := encodePeerMessage("B", req)
	r.NoError(err)
	r.Equal(common.MsgTAccessRequest, msg.MsgType)
	r.Equal("C", msg.Origin, "replies go to the node the request was issued at")
	r.Equal(uint64(7), msg.RequestID)
	r.Equal(lockmgr.WriteBlocking, msg.RequestKind())

	reply, err := encodeReply("A", 7, manager.AccessDenied{Request: req, Reason: lockmgr.ResourceBusy})
	r.NoError(err)
	r.Equal(common.MsgTAccessDenied, reply.MsgType)

	decoded, err := decodeReply(reply, req.Requester)
	r.NoError(err)
	denied, ok := decoded.(manager.AccessDenied)
	r.True(ok)
	r.Equal(lockmgr.ResourceBusy, denied.Reason)
	r.Equal("R1", denied.Request.Resource)
	r.Equal(lockmgr.WriteBlocking, denied.Request.Kind)

	_, err = encodePeerMessage("B", manager.SnapshotRequest{})
	r.Error(err, "local only messages are not sent to peers")
}
