// Package client implements the RPC client of the lock service. NewRPCResourceClient
// returns a manager.IResourceManager that forwards every call to a manager node, so
// code written against a local node works unchanged against a remote one.
//
// The package focuses on:
//   - Transparent RPC access to a manager node
//   - Integration with the transport and serialization layers
//   - Context support on top of transports that have none
//
// Blocking Requests:
//
// A blocking access request returns only when the owning node grants or denies it,
// which may take arbitrarily long. Use a ClientConfig with TimeoutSecond = 0 and
// bound the wait with the context instead. If the context ends first, the request
// stays queued on the node; should it be granted later, the client releases it
// again so the lock does not stay held by a caller that is gone.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:  []string{"localhost:8080"},
//	    RetryCount: 1,
//	  },
//	}
//
//	locks, err := client.NewRPCResourceClient(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//
//	ok, reason, err := locks.RequestAccess(ctx, "alice", "printer", lockmgr.WriteBlocking)
//	if err == nil && ok {
//	  defer locks.ReleaseAccess(ctx, "alice", "printer", lockmgr.AccessWrite)
//	}
//
// Thread Safety:
//
//	The client is safe for concurrent use. Requests are correlated by the transport,
//	so many blocking requests may wait on one connection at the same time.
package client
