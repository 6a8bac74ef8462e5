package service

import (
	"context"
	"testing"

	"github.com/natterlabs/natter/src/common"
	"github.com/stretchr/testify/require"
)

func TestEchoReply(t *testing.T) {
	ctx := context.Background()
	rt := newFakeRuntime(t, "n1")

	s := NewEchoService()
	require.NoError(t, s.Init(ctx, rt, []string{"n1"}))

	m := inbound(t, "c1", echoBody{Type: typeEcho, Echo: "hello"}, 12)
	require.NoError(t, s.HandleMessage(ctx, m, rt))

	out := rt.outbox()
	require.Len(t, out, 1)
	require.Equal(t, "c1", out[0].dest)
	require.Equal(t, uint64(12), out[0].inReplyTo)

	reply, ok := out[0].payload.(echoBody)
	require.True(t, ok)
	require.Equal(t, typeEchoOK, reply.Type)
	require.Equal(t, "hello", reply.Echo)
}

func TestEchoMissingMsgID(t *testing.T) {
	ctx := context.Background()
	rt := newFakeRuntime(t, "n1")

	s := NewEchoService()

	m := inbound(t, "c1", echoBody{Type: typeEcho, Echo: "hello"}, 0)
	err := s.HandleMessage(ctx, m, rt)
	require.True(t, common.IsProto(err, common.MissingMsgID))
	require.Empty(t, rt.outbox())
}

func TestUniqueIDs(t *testing.T) {
	ctx := context.Background()
	rt := newFakeRuntime(t, "n1")

	s := NewUniqueIDService()
	require.NoError(t, s.Init(ctx, rt, []string{"n1"}))

	ids := map[string]bool{}
	for i := uint64(1); i <= 10; i++ {
		m := inbound(t, "c1", map[string]interface{}{"type": typeGenerate}, i)
		require.NoError(t, s.HandleMessage(ctx, m, rt))

		out := rt.outbox()
		require.Len(t, out, 1)

		reply, ok := out[0].payload.(generateOK)
		require.True(t, ok)
		require.Equal(t, typeGenerateOK, reply.Type)
		require.False(t, ids[reply.ID], "duplicate id %s", reply.ID)
		ids[reply.ID] = true
	}
}
