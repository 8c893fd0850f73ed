// Package rpc is the communication layer of the lock service. It carries client
// requests to manager nodes and the messages manager nodes exchange with each other.
//
// The package is organized into several subpackages:
//
//   - common: the Message wire format, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP). Every frame is sent on a channel: client requests
//     and peer messages use separate channels of the same listener.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: an RPC implementation of manager.IResourceManager, allowing
//     applications to use a remote node like a local one.
//
//   - server: runs a manager node behind a transport, including the peer links to
//     the other nodes of the cluster.
package rpc
