package net

import "github.com/natterlabs/natter/src/msg"

// Transport adapts a message channel to allow a node to exchange envelopes
// with the harness or with other nodes.
type Transport interface {

	// Listen starts the transport's receive machinery.
	Listen()

	// Consumer returns a channel that yields inbound messages in arrival
	// order. The channel is closed when the inbound side terminates, either
	// cleanly or with an error; Err distinguishes the two.
	Consumer() <-chan msg.Message

	// Send writes one envelope to the outbound side. Concurrent callers are
	// serialized; two sends never interleave their bytes.
	Send(m msg.Message) error

	// Err returns the terminal receive error, or nil after a clean
	// end-of-input. It is only meaningful once the consumer channel closed.
	Err() error

	// Close permanently closes a transport, stopping any associated
	// goroutines and freeing other resources.
	Close() error
}
