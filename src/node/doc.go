// Package node implements the runtime of a natter node.
//
// A node adapts a Transport into a running protocol service. Its lifecycle is
// a small state machine: Uninitialized, Ready, and Shutdown.
//
// # Handshake
//
// In the Uninitialized state the node blocks on the transport for exactly one
// message, which must be the init request carrying the node's assigned
// identifier and the full list of node identifiers in the network. Anything
// else is fatal. On success the node stores its identity, replies with
// init_ok correlated to the request, runs the service's initialization hook,
// and enters the Ready state. The identity is written exactly once and shared
// by reference with every handler afterwards.
//
// # Dispatch
//
// In the Ready state the node loops on the transport's consumer channel and
// hands each message to the protocol service on its own goroutine, fire and
// forget, so that a slow handler never stalls reception. The number of
// in-flight handlers is bounded by configuration; past the bound, messages
// are handled inline on the receive loop. Handler failures are logged and
// the offending message is dropped; they never terminate the run loop. A
// second init request after the handshake is reported and dropped.
//
// # Ticks
//
// Services that implement the Ticker interface get a periodic callback
// driven by the ControlTimer, independent of inbound traffic. This is how
// the broadcast service runs its gossip dissemination. When the inbound
// stream ends the timer is shut down and the node waits for in-flight
// handlers before returning.
package node
