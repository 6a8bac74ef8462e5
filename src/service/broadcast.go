package service

import (
	"context"
	"sort"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/natterlabs/natter/src/cmap"
	"github.com/natterlabs/natter/src/common"
	"github.com/natterlabs/natter/src/msg"
)

const (
	typeBroadcast   = "broadcast"
	typeBroadcastOK = "broadcast_ok"
	typeRead        = "read"
	typeReadOK      = "read_ok"
	typeTopology    = "topology"
	typeTopologyOK  = "topology_ok"
	typeGossip      = "gossip"
)

type broadcastRequest struct {
	Type    string `json:"type"`
	Message uint64 `json:"message"`
}

type broadcastOK struct {
	Type string `json:"type"`
}

type readOK struct {
	Type     string   `json:"type"`
	Messages []uint64 `json:"messages"`
}

type topologyRequest struct {
	Type     string              `json:"type"`
	Topology map[string][]string `json:"topology"`
}

type topologyOK struct {
	Type string `json:"type"`
}

type gossipBody struct {
	Type string   `json:"type"`
	Seen []uint64 `json:"seen"`
}

// BroadcastService delivers every value submitted to any node to every other
// node, using periodic anti-entropy gossip between neighbors. Values form an
// unordered set; no total order is established.
//
// Each node tracks, per neighbor, the subset of its seen set that the
// neighbor is believed to already have. A gossip tick sends each neighbor
// only the difference, so steady-state traffic is bounded by genuinely new
// information instead of retransmitting the whole set. Knowledge is recorded
// when gossip arrives: a peer that sent a value evidently has it, which also
// stops values from being gossiped straight back to their origin.
type BroadcastService struct {
	// seen is the set of values this node has observed, directly or via
	// gossip. Grows monotonically.
	seen mapset.Set[uint64]

	// known maps a neighbor id to the subset of seen believed known to that
	// neighbor. Entries are created at Init for every node in the network.
	known *cmap.Map[mapset.Set[uint64]]

	// neighbors is the current neighbor list, replaced wholesale on every
	// topology message. Readers observe either the previous or the new
	// complete snapshot.
	neighbors atomic.Pointer[[]string]
}

// NewBroadcastService ...
func NewBroadcastService() *BroadcastService {
	s := &BroadcastService{
		seen:  mapset.NewSet[uint64](),
		known: cmap.New[mapset.Set[uint64]](),
	}
	s.neighbors.Store(&[]string{})
	return s
}

// Init implements the Service interface. A known-set entry is created for
// every node supplied at handshake time, starting empty.
func (s *BroadcastService) Init(ctx context.Context, rt Runtime, nodeIDs []string) error {
	for _, id := range nodeIDs {
		if id == rt.ID() {
			continue
		}
		if _, _, err := s.known.Insert(ctx, id, mapset.NewSet[uint64]()); err != nil {
			return err
		}
	}
	return nil
}

// HandleMessage implements the Service interface.
func (s *BroadcastService) HandleMessage(ctx context.Context, m msg.Message, rt Runtime) error {
	header, err := msg.ParseBody(m.Body)
	if err != nil {
		return err
	}

	switch header.Type {
	case typeBroadcast:
		return s.handleBroadcast(m, header, rt)
	case typeRead:
		return s.handleRead(m, header, rt)
	case typeTopology:
		return s.handleTopology(m, header, rt)
	case typeGossip:
		return s.handleGossip(ctx, m, rt)
	default:
		rt.Logger().WithField("type", header.Type).Warn("Unexpected message")
		return nil
	}
}

func (s *BroadcastService) handleBroadcast(m msg.Message, header msg.Body, rt Runtime) error {
	if header.MsgID == 0 {
		return common.NewProtoErr(common.MissingMsgID, header.Type)
	}

	var body broadcastRequest
	if err := msg.DecodeBody(m.Body, &body); err != nil {
		return err
	}

	// Reply before the value has propagated anywhere; dissemination is the
	// gossip task's job.
	s.seen.Add(body.Message)

	return rt.Reply(m.Src, header.MsgID, broadcastOK{Type: typeBroadcastOK})
}

func (s *BroadcastService) handleRead(m msg.Message, header msg.Body, rt Runtime) error {
	if header.MsgID == 0 {
		return common.NewProtoErr(common.MissingMsgID, header.Type)
	}

	// A point-in-time snapshot, not a quiesced view.
	messages := s.seen.ToSlice()
	sort.Slice(messages, func(i, j int) bool { return messages[i] < messages[j] })

	return rt.Reply(m.Src, header.MsgID, readOK{
		Type:     typeReadOK,
		Messages: messages,
	})
}

func (s *BroadcastService) handleTopology(m msg.Message, header msg.Body, rt Runtime) error {
	if header.MsgID == 0 {
		return common.NewProtoErr(common.MissingMsgID, header.Type)
	}

	var body topologyRequest
	if err := msg.DecodeBody(m.Body, &body); err != nil {
		return err
	}

	neighbors := body.Topology[rt.ID()]
	s.neighbors.Store(&neighbors)

	rt.Logger().WithField("neighbors", neighbors).Debug("Updated topology")

	return rt.Reply(m.Src, header.MsgID, topologyOK{Type: typeTopologyOK})
}

func (s *BroadcastService) handleGossip(ctx context.Context, m msg.Message, rt Runtime) error {
	var body gossipBody
	if err := msg.DecodeBody(m.Body, &body); err != nil {
		return err
	}

	s.seen.Append(body.Seen...)

	// The sender evidently has these values; record that so they are not
	// gossiped straight back.
	entry, err := s.known.Entry(ctx, m.Src)
	if err != nil {
		return err
	}
	known := entry.OrInsert(mapset.NewSet[uint64]())
	entry.Release()

	known.Append(body.Seen...)

	return nil
}

// Tick implements the Ticker interface: one execution of the dissemination
// routine. Every neighbor is sent the subset of the seen set not yet marked
// known to it. Failures affect the current neighbor only; the next tick
// retries with an up-to-date delta.
func (s *BroadcastService) Tick(ctx context.Context, rt Runtime) error {
	neighbors := *s.neighbors.Load()

	for _, neighbor := range neighbors {
		known, ok, err := s.known.Get(ctx, neighbor)
		if err != nil {
			return err
		}
		if !ok {
			// Not yet initialized for this neighbor; skip it this tick.
			rt.Logger().WithError(common.NewProtoErr(common.NoKnownSet, neighbor)).
				Debug("Skipping neighbor")
			continue
		}

		delta := s.seen.Difference(known)
		if delta.Cardinality() == 0 {
			continue
		}

		seen := delta.ToSlice()
		sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })

		if err := rt.Send(neighbor, gossipBody{Type: typeGossip, Seen: seen}); err != nil {
			rt.Logger().WithError(err).WithField("neighbor", neighbor).
				Error("Gossip send failed")
		}
	}

	return nil
}
