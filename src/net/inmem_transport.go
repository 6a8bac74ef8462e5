package net

import (
	"fmt"
	"sync"

	"github.com/natterlabs/natter/src/msg"
)

// InmemNetwork connects InmemTransports by node identifier, to allow nodes to
// be tested in-memory without going over real byte streams.
type InmemNetwork struct {
	mu    sync.RWMutex
	nodes map[string]*InmemTransport
}

// NewInmemNetwork ...
func NewInmemNetwork() *InmemNetwork {
	return &InmemNetwork{
		nodes: make(map[string]*InmemTransport),
	}
}

// Transport returns the transport registered under id, creating it on first
// use. Register one for every node and every simulated client in the test.
func (n *InmemNetwork) Transport(id string) *InmemTransport {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.nodes[id]; ok {
		return t
	}

	t := &InmemTransport{
		network:    n,
		localID:    id,
		consumerCh: make(chan msg.Message, 16),
	}
	n.nodes[id] = t
	return t
}

func (n *InmemNetwork) deliver(m msg.Message) error {
	n.mu.RLock()
	target, ok := n.nodes[m.Dest]
	n.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown destination: %s", m.Dest)
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	if target.closed {
		return fmt.Errorf("destination closed: %s", m.Dest)
	}

	target.consumerCh <- m
	return nil
}

// InmemTransport implements the Transport interface in memory.
type InmemTransport struct {
	network *InmemNetwork
	localID string

	mu         sync.Mutex
	closed     bool
	consumerCh chan msg.Message
}

// Listen implements the Transport interface.
func (t *InmemTransport) Listen() {}

// Consumer implements the Transport interface.
func (t *InmemTransport) Consumer() <-chan msg.Message {
	return t.consumerCh
}

// Send implements the Transport interface.
func (t *InmemTransport) Send(m msg.Message) error {
	return t.network.deliver(m)
}

// Err implements the Transport interface.
func (t *InmemTransport) Err() error {
	return nil
}

// Close implements the Transport interface. Closing the consumer channel
// makes the node's receive loop observe a clean end-of-input.
func (t *InmemTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		t.closed = true
		close(t.consumerCh)
	}
	return nil
}
