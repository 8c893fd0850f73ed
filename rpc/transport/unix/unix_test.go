package unix

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/stretchr/testify/require"
)

// startServer runs a unix server transport with the given handler until the test ends
func startServer(t *testing.T, handler transport.ServerHandleFunc) string {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "dlock.sock")

	server := NewUnixServerTransport()
	server.RegisterHandler(handler)

	done := make(chan error, 1)
	go func() {
		done <- server.Listen(common.ServerConfig{
			Transport: common.ServerTransportConfig{Endpoint: socket},
		})
	}()
	t.Cleanup(func() {
		require.NoError(t, server.Close())
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return socket
}

func connect(t *testing.T, socket string) transport.IRPCClientTransport {
	t.Helper()
	client := NewUnixClientTransport()
	require.Eventually(t, func() bool {
		return client.Connect(common.ClientConfig{
			TimeoutSecond: 5,
			Transport:     common.ClientTransportConfig{Endpoints: []string{socket}},
		}) == nil
	}, 5*time.Second, 10*time.Millisecond)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSendRoundTrip(t *testing.T) {
	socket := startServer(t, func(ctx context.Context, channel uint64, req []byte) []byte {
		return []byte(fmt.Sprintf("%d:%s", channel, req))
	})
	client := connect(t, socket)

	resp, err := client.Send(transport.ChannelClient, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "1:hello", string(resp))

	resp, err = client.Send(transport.ChannelPeer, []byte("peer"))
	require.NoError(t, err)
	require.Equal(t, "2:peer", string(resp))
}

func TestSlowRequestDoesNotBlockOthers(t *testing.T) {
	release := make(chan struct{})
	socket := startServer(t, func(ctx context.Context, channel uint64, req []byte) []byte {
		if string(req) == "slow" {
			select {
			case <-release:
			case <-ctx.Done():
			}
		}
		return req
	})
	client := connect(t, socket)

	var wg sync.WaitGroup
	wg.Add(1)
	var slowResp []byte
	go func() {
		defer wg.Done()
		slowResp, _ = client.Send(transport.ChannelClient, []byte("slow"))
	}()

	// responses are correlated by request id, so a fast request overtakes the slow one
	resp, err := client.Send(transport.ChannelClient, []byte("fast"))
	require.NoError(t, err)
	require.Equal(t, "fast", string(resp))

	close(release)
	wg.Wait()
	require.Equal(t, "slow", string(slowResp))
}

func TestConnectionLossCancelsHandlerContext(t *testing.T) {
	canceled := make(chan struct{})
	socket := startServer(t, func(ctx context.Context, channel uint64, req []byte) []byte {
		<-ctx.Done()
		close(canceled)
		return nil
	})

	client := NewUnixClientTransport()
	require.Eventually(t, func() bool {
		return client.Connect(common.ClientConfig{
			TimeoutSecond: 1,
			Transport:     common.ClientTransportConfig{Endpoints: []string{socket}},
		}) == nil
	}, 5*time.Second, 10*time.Millisecond)

	_, err := client.Send(transport.ChannelClient, []byte("never answered"))
	require.Error(t, err, "request times out on the client")
	require.NoError(t, client.Close())

	select {
	case <-canceled:
	case <-time.After(5 * time.Second):
		t.Fatal("handler context was not canceled")
	}
}
