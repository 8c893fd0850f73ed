package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

// NewRPCResourceClient creates a manager.IResourceManager that talks to a manager node.
// The transport is connected with config before the client is returned.
func NewRPCResourceClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (manager.IResourceManager, error) {

	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcResourceClient{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcResourceClient struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see manager.IResourceManager)
// --------------------------------------------------------------------------

func (c *rpcResourceClient) RequestAccess(ctx context.Context, requester, resource string, kind lockmgr.RequestKind) (bool, lockmgr.AccessDenialReason, error) {
	// a grant that arrives after the caller gave up is released again
	abandoned := func(resp *common.Message) {
		if resp.MsgType != common.MsgTAccessGranted {
			return
		}
		Logger.Infof("releasing %s on %s granted after the request was abandoned", kind.Access(), resource)
		if err := c.ReleaseAccess(context.Background(), requester, resource, kind.Access()); err != nil {
			Logger.Warningf("failed to release abandoned %s on %s: %v", kind.Access(), resource, err)
		}
	}

	req := common.NewAccessRequest(resource, requester, kind)
	resp, err := c.invokeRPCRequest(ctx, req, abandoned, common.MsgTAccessGranted, common.MsgTAccessDenied)
	if err != nil {
		return false, lockmgr.AccessDenialNone, err
	}
	return resp.MsgType == common.MsgTAccessGranted, resp.AccessDenialReason(), nil
}

func (c *rpcResourceClient) ReleaseAccess(ctx context.Context, requester, resource string, access lockmgr.AccessType) error {
	req := common.NewReleaseRequest(resource, requester, access)
	_, err := c.invokeRPCRequest(ctx, req, nil, common.MsgTSuccess)
	return err
}

func (c *rpcResourceClient) RequestManagement(ctx context.Context, requester, resource string, kind lockmgr.ManagementKind) (bool, lockmgr.ManagementDenialReason, error) {
	req := common.NewManagementRequest(resource, requester, kind)
	resp, err := c.invokeRPCRequest(ctx, req, nil, common.MsgTMgmtGranted, common.MsgTMgmtDenied)
	if err != nil {
		return false, lockmgr.ManagementDenialNone, err
	}
	return resp.MsgType == common.MsgTMgmtGranted, resp.ManagementDenialReason(), nil
}

func (c *rpcResourceClient) Status(ctx context.Context) (manager.Snapshot, error) {
	resp, err := c.invokeRPCRequest(ctx, common.NewStatusRequest(), nil, common.MsgTStatus)
	if err != nil {
		return manager.Snapshot{}, err
	}
	var snapshot manager.Snapshot
	if err := json.Unmarshal(resp.Meta, &snapshot); err != nil {
		return manager.Snapshot{}, fmt.Errorf("invalid status: %v", err)
	}
	return snapshot, nil
}
