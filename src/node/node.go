package node

import (
	"context"

	"github.com/natterlabs/natter/src/common"
	"github.com/natterlabs/natter/src/config"
	"github.com/natterlabs/natter/src/msg"
	"github.com/natterlabs/natter/src/net"
	"github.com/natterlabs/natter/src/service"
	"github.com/sirupsen/logrus"
)

// Node owns the transport, performs the one-time handshake, and dispatches
// every subsequent message to the protocol service. Handlers run
// concurrently; a slow handler does not stall reception of further messages.
type Node struct {
	state

	conf   *config.Config
	logger *logrus.Entry

	trans   net.Transport
	service service.Service

	// id is the node identity, written exactly once during the handshake and
	// read without synchronization afterwards.
	id      string
	nodeIDs []string

	idGen IDGenerator

	controlTimer *ControlTimer

	ctx    context.Context
	cancel context.CancelFunc
}

// NewNode is a factory method that returns a Node instance.
func NewNode(conf *config.Config, trans net.Transport, svc service.Service) *Node {
	ctx, cancel := context.WithCancel(context.Background())

	return &Node{
		state:        state{wgLimit: int32(conf.MaxHandlers)},
		conf:         conf,
		logger:       conf.Logger(),
		trans:        trans,
		service:      svc,
		controlTimer: NewIntervalControlTimer(conf.GossipInterval),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// ID implements the service.Runtime interface.
func (n *Node) ID() string {
	return n.id
}

// Logger implements the service.Runtime interface.
func (n *Node) Logger() *logrus.Entry {
	return n.logger
}

// Send implements the service.Runtime interface. A fresh message identifier
// is assigned to every outgoing message.
func (n *Node) Send(dest string, payload interface{}) error {
	return n.send(dest, 0, payload)
}

// Reply implements the service.Runtime interface.
func (n *Node) Reply(dest string, inReplyTo uint64, payload interface{}) error {
	return n.send(dest, inReplyTo, payload)
}

func (n *Node) send(dest string, inReplyTo uint64, payload interface{}) error {
	if n.id == "" {
		return common.NewProtoErr(common.NeedsInit, dest)
	}

	body, err := msg.EncodeBody(payload, n.idGen.Next(), inReplyTo)
	if err != nil {
		return err
	}

	return n.trans.Send(msg.Message{
		Src:  n.id,
		Dest: dest,
		Body: body,
	})
}

// Run invokes the main loop of the node. It returns nil when the inbound
// stream ends cleanly, and the terminal error otherwise.
func (n *Node) Run() error {
	n.trans.Listen()

	if err := n.handshake(); err != nil {
		n.logger.WithError(err).Error("Handshake failed")
		n.shutdown()
		return err
	}

	n.setState(Ready)
	n.logger.WithField("state", n.getState().String()).Debug("Run loop")

	// Start the periodic routine only for services that have one.
	if ticker, ok := n.service.(service.Ticker); ok {
		go n.controlTimer.Run()
		go n.tickLoop(ticker)
	}

	for m := range n.trans.Consumer() {
		n.dispatch(m)
	}

	n.shutdown()

	return n.trans.Err()
}

// RunAsync calls Run on a separate goroutine.
func (n *Node) RunAsync() {
	go func() {
		if err := n.Run(); err != nil {
			n.logger.WithError(err).Error("Run exited")
		}
	}()
}

// handshake blocks on the transport for exactly one message, which must be
// the init request. On success the node identity is set, the init_ok reply
// is written, and the service's own initialization hook runs.
func (n *Node) handshake() error {
	m, ok := <-n.trans.Consumer()
	if !ok {
		if err := n.trans.Err(); err != nil {
			return err
		}
		return common.NewProtoErr(common.Eof, "handshake")
	}

	header, err := msg.ParseBody(m.Body)
	if err != nil {
		return err
	}

	if header.Type != msg.TypeInit {
		return common.NewProtoErr(common.NeedsInit, header.Type)
	}

	if header.MsgID == 0 {
		return common.NewProtoErr(common.MissingMsgID, msg.TypeInit)
	}

	init, err := msg.ParseInit(m.Body)
	if err != nil {
		return err
	}

	n.id = init.NodeID
	n.nodeIDs = init.NodeIDs
	n.logger = n.logger.WithField("node_id", n.id)

	n.logger.WithField("node_ids", init.NodeIDs).Debug("Handshake complete")

	if err := n.Reply(m.Src, header.MsgID, msg.NewInitOK()); err != nil {
		return err
	}

	return n.service.Init(n.ctx, n, init.NodeIDs)
}

// dispatch hands one message to the service. Handler errors are logged and
// the message is dropped; they never reach the receive loop.
func (n *Node) dispatch(m msg.Message) {
	header, err := msg.ParseBody(m.Body)
	if err != nil {
		n.logger.WithError(err).WithField("src", m.Src).Error("Dropping undecodable body")
		return
	}

	if header.Type == msg.TypeInit {
		//An already-initialized node cannot be re-initialized.
		err := common.NewProtoErr(common.AlreadyInit, m.Src)
		n.logger.WithError(err).Error("Dropping init")
		return
	}

	run := func() {
		if err := n.service.HandleMessage(n.ctx, m, n); err != nil {
			n.logger.WithError(err).WithFields(logrus.Fields{
				"type": header.Type,
				"src":  m.Src,
			}).Error("Handler failed")
		}
	}

	//Fire and forget up to the in-flight limit; beyond it, handle inline so
	//that fan-out stays bounded.
	if !n.goFunc(run) {
		run()
	}
}

func (n *Node) tickLoop(ticker service.Ticker) {
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-n.controlTimer.tickCh:
			if err := ticker.Tick(n.ctx, n); err != nil {
				n.logger.WithError(err).Error("Tick failed")
			}
		}
	}
}

// shutdown cancels background routines and waits for in-flight handlers.
func (n *Node) shutdown() {
	n.setState(Shutdown)
	n.cancel()
	n.controlTimer.Shutdown()
	n.waitRoutines()
	n.logger.Debug("Shutdown")
}
