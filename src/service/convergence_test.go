package service_test

import (
	"testing"
	"time"

	"github.com/natterlabs/natter/src/config"
	"github.com/natterlabs/natter/src/msg"
	"github.com/natterlabs/natter/src/net"
	"github.com/natterlabs/natter/src/node"
	"github.com/natterlabs/natter/src/service"
	"github.com/sirupsen/logrus"
)

func send(t *testing.T, client *net.InmemTransport, dest string, payload interface{}, msgID uint64) {
	t.Helper()
	body, err := msg.EncodeBody(payload, msgID, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := client.Send(msg.Message{Src: "c1", Dest: dest, Body: body}); err != nil {
		t.Fatalf("err: %v", err)
	}
}

func awaitReply(t *testing.T, client *net.InmemTransport, inReplyTo uint64) msg.Message {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case m, ok := <-client.Consumer():
			if !ok {
				t.Fatal("client consumer closed")
			}
			header, err := msg.ParseBody(m.Body)
			if err != nil {
				t.Fatalf("err: %v", err)
			}
			if header.InReplyTo == inReplyTo {
				return m
			}
		case <-timeout:
			t.Fatalf("timeout waiting for reply to %d", inReplyTo)
		}
	}
}

// TestConvergence runs three fully connected broadcast nodes and checks that
// a value submitted to one of them becomes readable on all of them within a
// bounded number of gossip intervals.
func TestConvergence(t *testing.T) {
	network := net.NewInmemNetwork()
	client := network.Transport("c1")

	ids := []string{"n1", "n2", "n3"}

	transports := map[string]*net.InmemTransport{}
	done := map[string]chan error{}

	for _, id := range ids {
		conf := config.NewTestConfig(t, logrus.ErrorLevel)
		trans := network.Transport(id)
		transports[id] = trans

		n := node.NewNode(conf, trans, service.NewBroadcastService())

		ch := make(chan error, 1)
		done[id] = ch
		go func() { ch <- n.Run() }()
	}

	msgID := uint64(0)
	nextID := func() uint64 {
		msgID++
		return msgID
	}

	// Handshake every node.
	for _, id := range ids {
		reqID := nextID()
		send(t, client, id, msg.Init{
			Type:    msg.TypeInit,
			NodeID:  id,
			NodeIDs: ids,
		}, reqID)
		awaitReply(t, client, reqID)
	}

	// Full mesh.
	topology := map[string][]string{
		"n1": {"n2", "n3"},
		"n2": {"n1", "n3"},
		"n3": {"n1", "n2"},
	}
	for _, id := range ids {
		reqID := nextID()
		send(t, client, id, map[string]interface{}{
			"type":     "topology",
			"topology": topology,
		}, reqID)
		awaitReply(t, client, reqID)
	}

	// Submit one value to n1 only.
	reqID := nextID()
	send(t, client, "n1", map[string]interface{}{
		"type":    "broadcast",
		"message": 7,
	}, reqID)
	awaitReply(t, client, reqID)

	// Every other node must eventually read it.
	for _, id := range []string{"n2", "n3"} {
		deadline := time.Now().Add(5 * time.Second)
		for {
			reqID := nextID()
			send(t, client, id, map[string]interface{}{"type": "read"}, reqID)
			reply := awaitReply(t, client, reqID)

			var body struct {
				Messages []uint64 `json:"messages"`
			}
			if err := msg.DecodeBody(reply.Body, &body); err != nil {
				t.Fatalf("err: %v", err)
			}

			if contains(body.Messages, 7) {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("node %s never converged: %v", id, body.Messages)
			}
			time.Sleep(20 * time.Millisecond)
		}
	}

	for _, id := range ids {
		transports[id].Close()
		if err := <-done[id]; err != nil {
			t.Fatalf("node %s: %v", id, err)
		}
	}
}

func contains(values []uint64, v uint64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
