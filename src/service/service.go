// Package service defines the pluggable protocol contract and the protocol
// implementations that a node can run: echo, unique-ids, and the gossip-based
// broadcast service.
package service

import (
	"context"
	"fmt"

	"github.com/natterlabs/natter/src/msg"
	"github.com/sirupsen/logrus"
)

// Runtime is the capability set a service gets from the node that hosts it.
// It is safe for use from concurrent handler invocations.
type Runtime interface {

	// ID returns the node identifier assigned during the handshake.
	ID() string

	// Send writes a payload to dest with a fresh message identifier.
	Send(dest string, payload interface{}) error

	// Reply writes a payload to dest correlated to the request identified by
	// inReplyTo.
	Reply(dest string, inReplyTo uint64, payload interface{}) error

	// Logger returns the node's logger.
	Logger() *logrus.Entry
}

// Service is a protocol implementation. HandleMessage is invoked once per
// inbound message, from concurrently running handlers; implementations must
// synchronize their own state.
type Service interface {

	// Init is called once, after the handshake completes and before any
	// message is dispatched. nodeIDs lists every node in the network,
	// including this one.
	Init(ctx context.Context, rt Runtime, nodeIDs []string) error

	// HandleMessage processes one inbound message. Returned errors are
	// logged by the node and the message is dropped; they never stop the
	// receive loop.
	HandleMessage(ctx context.Context, m msg.Message, rt Runtime) error
}

// Ticker is implemented by services that run a periodic routine, such as the
// broadcast service's gossip dissemination. Tick is driven by the node's
// control timer; a tick that falls while the previous one is still running
// is dropped rather than queued.
type Ticker interface {
	Tick(ctx context.Context, rt Runtime) error
}

// New returns the named service implementation.
func New(name string) (Service, error) {
	switch name {
	case "broadcast":
		return NewBroadcastService(), nil
	case "echo":
		return NewEchoService(), nil
	case "unique-ids":
		return NewUniqueIDService(), nil
	default:
		return nil, fmt.Errorf("unknown service: %s", name)
	}
}
