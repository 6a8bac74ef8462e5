// Package net handles the transport layer between a node and the harness.
//
// The wire format is UTF-8 JSON, one envelope per newline-terminated line.
// The Decoder buffers raw bytes and yields an envelope whenever a complete
// line is available; a buffer holding only the prefix of a value is reported
// as "no value yet" and retained, while a complete but malformed value is a
// terminal error, since it means the stream is desynchronized. The Encoder
// is the single owner of the write half and serializes concurrent senders.
//
// StreamTransport runs the Decoder over a pair of byte streams, typically
// stdin and stdout, and exposes inbound messages through a consumer channel
// that closes on end-of-input. InmemTransport implements the same interface
// in memory, to allow whole networks of nodes to be tested without real
// streams.
package net
