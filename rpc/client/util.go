package client

import (
	"context"
	"fmt"
	"slices"

	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// result is the outcome of one request
type result struct {
	resp *common.Message
	err  error
}

// invokeRPCRequest sends a request on the client channel and waits for the response
// or for ctx to be done. If ctx ends first, the request keeps running on the server
// and the response is passed to abandoned (if not nil) once it arrives.
// The response is checked against the expected message types.
func (a *rpcClientAdapter) invokeRPCRequest(
	ctx context.Context,
	req *common.Message,
	abandoned func(*common.Message),
	expected ...common.MessageType,
) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	done := make(chan result, 1)
	go func() {
		resp, err := a.send(reqBytes, expected)
		done <- result{resp, err}
	}()

	select {
	case res := <-done:
		return res.resp, res.err
	case <-ctx.Done():
		if abandoned != nil {
			go func() {
				if res := <-done; res.err == nil {
					abandoned(res.resp)
				}
			}()
		}
		return nil, ctx.Err()
	}
}

func (a *rpcClientAdapter) send(reqBytes []byte, expected []common.MessageType) (*common.Message, error) {
	respBytes, err := a.transport.Send(transport.ChannelClient, reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp := &common.Message{}
	if err := a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("RPC client - Error: %s", err)
	}

	// Check if the response is an error response
	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, fmt.Errorf("RPC client - Error: %s", resp.Err)
	}

	// Check if the type of the response is one of the expected types
	if !slices.Contains(expected, resp.MsgType) {
		return nil, fmt.Errorf("RPC client - Unexpected message type: %s, expected %v", resp.MsgType, expected)
	}

	return resp, nil
}
