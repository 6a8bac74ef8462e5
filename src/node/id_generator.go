package node

import "sync/atomic"

// IDGenerator produces message identifiers for outgoing messages. Values are
// unique within the node's lifetime and monotonically increasing; each
// increment is linearizable, but order across concurrent callers is not
// otherwise constrained.
type IDGenerator struct {
	last uint64
}

// Next returns a fresh message identifier. Identifiers start at 1; zero is
// reserved to mean "absent" on the wire.
func (g *IDGenerator) Next() uint64 {
	return atomic.AddUint64(&g.last, 1)
}
