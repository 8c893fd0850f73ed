package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/ValentinKolb/dLock/rpc/common"
)

// NewClientServerAdapter creates the adapter for the client channel.
// Requests are executed against mgr and answered once they are decided.
func NewClientServerAdapter(mgr manager.IResourceManager) IRPCServerAdapter {
	return &clientServerAdapter{mgr: mgr}
}

type clientServerAdapter struct {
	mgr manager.IResourceManager
}

func (a *clientServerAdapter) Handle(ctx context.Context, req *common.Message) *common.Message {
	switch req.MsgType {
	case common.MsgTAccessRequest:
		if req.Resource == "" || req.Requester == "" {
			return common.NewErrorResponse("access request needs a resource and a requester")
		}
		granted, reason, err := a.mgr.RequestAccess(ctx, req.Requester, req.Resource, req.RequestKind())
		return common.NewAccessResponse(granted, reason, err)

	case common.MsgTAccessRelease:
		if err := a.mgr.ReleaseAccess(ctx, req.Requester, req.Resource, req.AccessType()); err != nil {
			return common.NewErrorResponse(err.Error())
		}
		return common.NewSuccessResponse()

	case common.MsgTMgmtRequest:
		if req.Resource == "" || req.Requester == "" {
			return common.NewErrorResponse("management request needs a resource and a requester")
		}
		granted, reason, err := a.mgr.RequestManagement(ctx, req.Requester, req.Resource, req.ManagementKind())
		return common.NewManagementResponse(granted, reason, err)

	case common.MsgTStatus:
		snapshot, err := a.mgr.Status(ctx)
		if err != nil {
			return common.NewStatusResponse(nil, err)
		}
		meta, err := json.Marshal(snapshot)
		return common.NewStatusResponse(meta, err)

	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC ClientAdapter - Unsupported message type: %s", req.MsgType))
	}
}

