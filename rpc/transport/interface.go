package transport

import (
	"context"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// --------------------------------------------------------------------------
// Channels
// --------------------------------------------------------------------------

// Every frame carries a channel number that tells the server which handler
// semantics apply to the payload.
const (
	// ChannelClient carries requests of clients. The response is sent when the
	// request is decided.
	ChannelClient uint64 = 1
	// ChannelPeer carries messages between manager nodes. The response is an
	// acknowledgement sent as soon as the message is queued.
	ChannelPeer uint64 = 2
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It takes a channel and a request as parameters and returns a response.
// ctx is canceled when the connection the request arrived on goes away.
type ServerHandleFunc func(ctx context.Context, channel uint64, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
// It must accept a RPCServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and listens for incoming requests.
	// It blocks until Close is called or the listener fails.
	Listen(config common.ServerConfig) error
	// Close stops accepting connections and makes Listen return
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response
	Send(channel uint64, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
