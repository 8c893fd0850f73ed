package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/audit"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/server"
	"github.com/ValentinKolb/dLock/rpc/transport/unix"
	"github.com/stretchr/testify/require"
)

// startNode serves a single node on a unix socket and returns a connected client
func startNode(t *testing.T, resources ...string) (manager.IResourceManager, *audit.MemorySink) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "dlock.sock")
	sink := audit.NewMemorySink()

	config := common.ServerConfig{
		NodeID:        "n1",
		Resources:     resources,
		TimeoutSecond: 5,
		Transport:     common.ServerTransportConfig{Endpoint: socket},
	}
	s := server.NewRPCServer(config, manager.NewNode("n1", sink), unix.NewUnixServerTransport(),
		serializer.NewBinarySerializer(), unix.NewUnixClientTransport)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	var client manager.IResourceManager
	require.Eventually(t, func() bool {
		c, err := NewRPCResourceClient(common.ClientConfig{
			Transport: common.ClientTransportConfig{Endpoints: []string{socket}, RetryCount: 1},
		}, unix.NewUnixClientTransport(), serializer.NewBinarySerializer())
		if err != nil {
			return false
		}
		client = c
		return true
	}, 5*time.Second, 10*time.Millisecond)

	return client, sink
}

func TestAccessLifecycle(t *testing.T) {
	r := require.New(t)
	client, _ := startNode(t, "R1")
	ctx := context.Background()

	ok, _, err := client.RequestAccess(ctx, "alice", "R1", lockmgr.WriteBlocking)
	r.NoError(err)
	r.True(ok)

	ok, reason, err := client.RequestAccess(ctx, "bob", "R1", lockmgr.ReadNonblocking)
	r.NoError(err)
	r.False(ok)
	r.Equal(lockmgr.ResourceBusy, reason)

	granted := make(chan bool, 1)
	go func() {
		ok, _, _ := client.RequestAccess(ctx, "bob", "R1", lockmgr.ReadBlocking)
		granted <- ok
	}()

	r.Eventually(func() bool {
		snapshot, err := client.Status(ctx)
		if err != nil {
			return false
		}
		st, _ := snapshot.Resource("R1")
		return len(st.Queue) == 1
	}, 5*time.Second, 10*time.Millisecond)

	r.NoError(client.ReleaseAccess(ctx, "alice", "R1", lockmgr.AccessWrite))

	select {
	case ok := <-granted:
		r.True(ok)
	case <-time.After(5 * time.Second):
		t.Fatal("queued read was not granted")
	}

	snapshot, err := client.Status(ctx)
	r.NoError(err)
	st, found := snapshot.Resource("R1")
	r.True(found)
	r.Equal([]string{"bob"}, st.Readers)
	r.Equal("n1", snapshot.Node)
}

func TestManagement(t *testing.T) {
	r := require.New(t)
	client, sink := startNode(t, "R1")
	ctx := context.Background()

	ok, _, err := client.RequestManagement(ctx, "admin", "R1", lockmgr.ManageDisable)
	r.NoError(err)
	r.True(ok)

	ok, reason, err := client.RequestAccess(ctx, "alice", "R1", lockmgr.ReadBlocking)
	r.NoError(err)
	r.False(ok)
	r.Equal(lockmgr.ResourceDisabled, reason)

	ok, mreason, err := client.RequestManagement(ctx, "admin", "R9", lockmgr.ManageEnable)
	r.NoError(err)
	r.False(ok)
	r.Equal(lockmgr.ManagementResourceNotFound, mreason)

	r.NotEmpty(sink.Kinds(audit.ResourceStatusChanged))
}

func TestInvalidKindIsAnError(t *testing.T) {
	client, _ := startNode(t, "R1")

	_, _, err := client.RequestAccess(context.Background(), "alice", "R1", lockmgr.KindUnknown)
	require.Error(t, err)

	err = client.ReleaseAccess(context.Background(), "alice", "R1", lockmgr.AccessUnknown)
	require.Error(t, err)
}

func TestAbandonedRequestIsReleased(t *testing.T) {
	r := require.New(t)
	client, _ := startNode(t, "R1")
	ctx := context.Background()

	ok, _, err := client.RequestAccess(ctx, "alice", "R1", lockmgr.WriteBlocking)
	r.NoError(err)
	r.True(ok)

	// bob gives up while waiting
	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, _, err = client.RequestAccess(short, "bob", "R1", lockmgr.WriteBlocking)
	r.ErrorIs(err, context.DeadlineExceeded)

	// once alice releases, bob is granted and released again right away
	r.NoError(client.ReleaseAccess(ctx, "alice", "R1", lockmgr.AccessWrite))
	r.Eventually(func() bool {
		snapshot, err := client.Status(ctx)
		if err != nil {
			return false
		}
		st, _ := snapshot.Resource("R1")
		return st.Idle() && len(st.Queue) == 0
	}, 5*time.Second, 10*time.Millisecond)
}
