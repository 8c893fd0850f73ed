// Package server implements the RPC server of a lock manager node. It connects a
// manager.Node to a transport: client requests are executed against the node, and
// messages between nodes travel over peer links.
//
// The package focuses on:
//   - Server-side request handling for clients (access, release, management, status)
//   - Translating between node messages and the wire message format
//   - Ordered, retried delivery of messages to other nodes
//   - Running the node, its peer links and the transport as one unit
//
// Key Components:
//
//   - IRPCServerAdapter: handles the requests of one transport channel. The client
//     adapter (NewClientServerAdapter) works on any manager.IResourceManager and
//     answers a request once the node decided it, so blocking requests keep their
//     connection busy until they are granted. The peer adapter
//     (NewPeerServerAdapter) hands messages to the node and acknowledges them at once.
//
//   - remotePeer: the manager.Peer implementation for another node. Each link owns an
//     unbounded MPSC outbox and one sender goroutine that waits for the
//     acknowledgement of a message before sending the next one, so messages from one
//     node to another arrive in the order they were sent. Failed sends are retried
//     with exponential backoff (cenkalti/backoff) until the server stops.
//
//   - remoteRequester: stands in for a requester waiting at another node. Its replies
//     carry the request id of the origin node, which uses manager.Node.Pending to
//     find the waiting request.
//
//   - NewRPCServer: creates a server from the configuration, a node, a transport,
//     a serializer and the factory for peer transports.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  NodeID:    "n1",
//	  Resources: []string{"printer", "scanner"},
//	  Peers: []common.PeerConfig{
//	    {ID: "n2", Endpoint: "10.0.0.2:8080"},
//	  },
//	  Transport: common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  manager.NewNode(config.NodeID, audit.NewLoggerSink()),
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	  tcp.NewTCPClientTransport,
//	)
//
//	if err := s.Serve(ctx); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Serve blocks until ctx is canceled or one of its parts fails. Canceling ctx stops
// the node, closes all peer links and shuts the transport down.
package server
