package server

import (
	"context"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/ValentinKolb/dLock/lib/resource"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server for a manager node.
// peerTransport creates the client transport of each peer link.
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		manager.NewNode(config.NodeID, sink),
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//		tcp.NewTCPClientTransport,
//	)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	node *manager.Node,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	peerTransport PeerTransportFactory,
) *rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &rpcServer{
		config:        config,
		node:          node,
		transport:     transport,
		serializer:    serializer,
		peerTransport: peerTransport,
		adapters:      xsync.NewMapOf[uint64, IRPCServerAdapter](),
		peers:         xsync.NewMapOf[string, *remotePeer](),
	}
}

type rpcServer struct {
	config        common.ServerConfig
	node          *manager.Node
	transport     transport.IRPCServerTransport
	serializer    serializer.IRPCSerializer
	peerTransport PeerTransportFactory
	adapters      *xsync.MapOf[uint64, IRPCServerAdapter]
	peers         *xsync.MapOf[string, *remotePeer]
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(ctx context.Context, channel uint64, req []byte) []byte {
		var msg common.Message
		var respMsg *common.Message

		// Get the adapter of the channel
		adapter, ok := s.adapters.Load(channel)

		if !ok {
			respMsg = common.NewErrorResponse(fmt.Sprintf("unknown channel %d", channel))
		} else if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			respMsg = adapter.Handle(ctx, &msg)
		}

		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize %s response: %v", respMsg.MsgType, err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
}

func (s *rpcServer) lookupPeer(id string) (*remotePeer, bool) {
	return s.peers.Load(id)
}

// init creates the peer links and the channel adapters
func (s *rpcServer) init() []manager.Peer {
	var peers []manager.Peer
	for _, pc := range s.config.Peers {
		if pc.ID == s.config.NodeID {
			continue
		}
		p := newRemotePeer(s.config.NodeID, pc, s.config.PeerClientConfig(pc), s.peerTransport, s.serializer)
		s.peers.Store(pc.ID, p)
		peers = append(peers, p)
	}

	s.adapters.Store(transport.ChannelClient, NewClientServerAdapter(s.node))
	s.adapters.Store(transport.ChannelPeer, NewPeerServerAdapter(s.node, s.lookupPeer))
	s.registerTransportHandler()

	return peers
}

// bootstrap hands the configured peers, users and resources to the node
func (s *rpcServer) bootstrap(ctx context.Context, peers []manager.Peer) error {
	if err := s.node.SetPeers(ctx, peers); err != nil {
		return fmt.Errorf("failed to set peers: %v", err)
	}
	if err := s.node.SetLocalUsers(ctx, s.config.Users); err != nil {
		return fmt.Errorf("failed to set users: %v", err)
	}
	if err := s.node.SetLocalResources(ctx, resource.FromNames(s.config.Resources...)); err != nil {
		return fmt.Errorf("failed to set resources: %v", err)
	}
	Logger.Infof("[%s] hosting %d resources with %d peers", s.config.NodeID, len(s.config.Resources), len(peers))
	return nil
}

// Serve runs the node, its peer links and the transport layer until ctx is done
// or one of them fails.
func (s *rpcServer) Serve(ctx context.Context) error {
	peers := s.init()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.node.Run(ctx) })
	for _, p := range peers {
		link := p.(*remotePeer)
		g.Go(func() error { return link.run(ctx) })
	}

	g.Go(func() error {
		if err := s.bootstrap(ctx, peers); err != nil {
			return err
		}
		return s.transport.Listen(s.config)
	})

	g.Go(func() error {
		<-ctx.Done()
		return s.transport.Close()
	})

	err := g.Wait()
	Logger.Infof("[%s] RPC server stopped", s.config.NodeID)
	return err
}
