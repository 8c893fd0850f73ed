// Package http implements an HTTP based transport for the lock manager's RPC system.
// It is the easiest transport to put behind existing infrastructure (proxies, load
// balancers) and to poke at with curl, at the cost of one HTTP round trip per frame.
//
// Every request is a POST to /{channel}, where channel is one of the transport
// channel ids (transport.ChannelClient or transport.ChannelPeer). The body is the
// serialized message and the response body is the serialized reply.
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport. Requests are spread over
//     the configured endpoints round-robin and retried up to RetryCount times.
//     A zero TimeoutSecond disables the client timeout so blocking lock requests
//     can wait for as long as the lock is held elsewhere.
//
//   - httpServerTransport: Implements IRPCServerTransport on top of http.Server.
//     With log level debug every request is logged with its status and duration.
//     Close shuts the server down and gives in-flight requests a second to finish.
//
// Thread Safety:
//
//	The client transport can be used concurrently; the round-robin counter is atomic.
package http
