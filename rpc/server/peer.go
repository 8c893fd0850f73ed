package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/ValentinKolb/dLock/lib/util"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/cenkalti/backoff/v5"
)

// PeerTransportFactory creates the client transport used for one peer link
type PeerTransportFactory func() transport.IRPCClientTransport

// retryWindow is how long a single message is retried before a warning is logged.
// Retrying continues afterwards until the server stops.
const retryWindow = time.Minute

// errRejected marks messages the peer refused to accept; they are never retried
var errRejected = errors.New("rejected by peer")

// remotePeer is the link to another manager node. It implements manager.Peer.
//
// Messages are queued in an unbounded outbox and sent by a single goroutine (run),
// one at a time and in order. A message is only dequeued once the peer acknowledged
// it, which gives FIFO delivery per pair of nodes.
type remotePeer struct {
	id         string
	self       string
	config     common.ClientConfig
	dial       PeerTransportFactory
	serializer serializer.IRPCSerializer
	outbox     *util.MPSC[*common.Message]

	// owned by run
	client transport.IRPCClientTransport
}

func newRemotePeer(self string, peer common.PeerConfig, config common.ClientConfig, dial PeerTransportFactory, s serializer.IRPCSerializer) *remotePeer {
	return &remotePeer{
		id:         peer.ID,
		self:       self,
		config:     config,
		dial:       dial,
		serializer: s,
		outbox:     util.NewMPSC[*common.Message](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see manager.Peer)
// --------------------------------------------------------------------------

func (p *remotePeer) ID() string { return p.id }

func (p *remotePeer) Tell(msg manager.Message) {
	m, err := encodePeerMessage(p.self, msg)
	if err != nil {
		Logger.Errorf("[%s] not sending %T to %s: %v", p.self, msg, p.id, err)
		return
	}
	p.send(m)
}

// --------------------------------------------------------------------------
// Sending
// --------------------------------------------------------------------------

func (p *remotePeer) send(msg *common.Message) {
	if !p.outbox.Push(msg) {
		Logger.Warningf("[%s] link to %s is closed, dropping %s", p.self, p.id, msg.MsgType)
	}
}

// run sends queued messages until ctx is done
func (p *remotePeer) run(ctx context.Context) error {
	defer func() {
		p.outbox.Close()
		if p.client != nil {
			p.client.Close()
		}
	}()

	recv := p.outbox.Recv()
	for {
		select {
		case <-ctx.Done():
			if n := p.outbox.Len(); n > 0 {
				Logger.Warningf("[%s] link to %s stopped with %d unsent messages", p.self, p.id, n)
			}
			return nil
		case msg, ok := <-recv:
			if !ok {
				return nil
			}
			p.deliver(ctx, msg)
		}
	}
}

// deliver sends one message, retrying with exponential backoff until the peer
// acknowledged it or ctx is done
func (p *remotePeer) deliver(ctx context.Context, msg *common.Message) {
	data, err := p.serializer.Serialize(*msg)
	if err != nil {
		Logger.Errorf("[%s] failed to serialize %s for %s: %v", p.self, msg.MsgType, p.id, err)
		return
	}

	operation := func() (struct{}, error) {
		err := p.sendOnce(data)
		if errors.Is(err, errRejected) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	notify := func(err error, next time.Duration) {
		Logger.Debugf("[%s] sending %s to %s failed, retrying in %s: %v", p.self, msg.MsgType, p.id, next, err)
	}

	for {
		_, err := backoff.Retry(ctx, operation,
			backoff.WithBackOff(newPeerBackOff()),
			backoff.WithMaxElapsedTime(retryWindow),
			backoff.WithNotify(notify),
		)
		if err == nil || ctx.Err() != nil {
			return
		}

		if errors.Is(err, errRejected) {
			Logger.Errorf("[%s] %s: %v", p.self, msg.MsgType, err)
			return
		}
		Logger.Warningf("[%s] peer %s unreachable for %s, still retrying: %v", p.self, p.id, retryWindow, err)
	}
}

// sendOnce sends data over the link, connecting first if necessary.
// Errors other than errRejected may be retried.
func (p *remotePeer) sendOnce(data []byte) error {
	if p.client == nil {
		client := p.dial()
		if err := client.Connect(p.config); err != nil {
			return fmt.Errorf("connect: %v", err)
		}
		p.client = client
	}

	resp, err := p.client.Send(transport.ChannelPeer, data)
	if err != nil {
		// start over with a fresh connection on the next attempt
		p.client.Close()
		p.client = nil
		return err
	}

	var ack common.Message
	if err := p.serializer.Deserialize(resp, &ack); err != nil {
		return fmt.Errorf("%w: invalid acknowledgement from %s: %v", errRejected, p.id, err)
	}
	if ack.MsgType == common.MsgTError || ack.Err != "" {
		return fmt.Errorf("%w %s: %s", errRejected, p.id, ack.Err)
	}
	return nil
}

func newPeerBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}
