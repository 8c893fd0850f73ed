package server

import (
	"context"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters.
// There is one adapter per transport channel.
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response.
	// ctx is canceled when the connection of the request is gone.
	// If an error occurs, it should be set in the response.
	Handle(ctx context.Context, req *common.Message) (resp *common.Message)
}
