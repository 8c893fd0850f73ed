// Package base provides the stream transport used by the tcp and unix packages,
// implementing RPC communication independent of the specific network protocol.
// Protocol specific behavior is plugged in through the connector interfaces.
//
// Wire Format:
//
// Every frame consists of a 20 byte header followed by the payload:
//
//	| channel (8 bytes) | requestID (8 bytes) | length (4 bytes) | payload |
//
// All integers are big endian. The channel selects the handler side (client
// requests vs. peer traffic) and the requestID correlates a response with its
// request, so responses may come back in any order.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: protocol specific dialing, listening and
//     socket tuning.
//
//   - clientTransport: manages one or more connections per endpoint with round-robin
//     selection. Each connection has a reader goroutine that routes responses to the
//     waiting Send call. If the stream breaks, every waiting request fails and the
//     connection is re-established.
//
//   - serverTransport: accepts connections and processes the requests of each
//     connection concurrently, bounded by WorkersPerConn. Read buffers are pooled.
//
// Blocking Requests:
//
// A lock request may legitimately wait for a long time on the server. The server
// therefore never applies read deadlines to idle connections and uses a generous
// default worker count, and the client only times out if TimeoutSecond is set.
//
// Thread Safety:
//
//	All public methods are thread-safe. Writes on a connection are serialized
//	with a mutex; a frame is written with a single net.Buffers call.
package base
