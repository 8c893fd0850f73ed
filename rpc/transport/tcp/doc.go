// Package tcp implements the TCP socket transport for the lock manager's RPC system.
// It provides concrete implementations of the base package's connector interfaces;
// framing, request correlation and connection handling are inherited from base.
//
// Both connectors apply the same socket options (see common.SocketConf and
// common.TCPConf) right after a connection is established:
//
//   - TCPNoDelay disables Nagle's algorithm. Lock traffic consists of many tiny
//     frames, so this is usually what you want.
//   - TCPKeepAliveSec enables keep-alive probes for long idle peer connections.
//   - TCPLingerSec sets SO_LINGER; zero keeps the system default.
//   - Read/WriteBufferSize set the kernel socket buffer sizes.
//
// TCP is the default transport between manager nodes.
package tcp
