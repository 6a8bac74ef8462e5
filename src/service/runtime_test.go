package service

import (
	"sync"
	"testing"

	"github.com/natterlabs/natter/src/common"
	"github.com/natterlabs/natter/src/msg"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"
)

type sentMsg struct {
	dest      string
	inReplyTo uint64
	payload   interface{}
}

// fakeRuntime records outbound traffic instead of writing it anywhere.
type fakeRuntime struct {
	id     string
	logger *logrus.Entry

	mu   sync.Mutex
	sent []sentMsg
}

func newFakeRuntime(t *testing.T, id string) *fakeRuntime {
	return &fakeRuntime{
		id:     id,
		logger: common.NewTestEntry(t, logrus.DebugLevel),
	}
}

func (r *fakeRuntime) ID() string {
	return r.id
}

func (r *fakeRuntime) Send(dest string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMsg{dest: dest, payload: payload})
	return nil
}

func (r *fakeRuntime) Reply(dest string, inReplyTo uint64, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMsg{dest: dest, inReplyTo: inReplyTo, payload: payload})
	return nil
}

func (r *fakeRuntime) Logger() *logrus.Entry {
	return r.logger
}

// outbox returns a snapshot of everything sent so far and clears the record.
func (r *fakeRuntime) outbox() []sentMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}

func mustBody(t *testing.T, payload interface{}, msgID uint64) codec.Raw {
	t.Helper()
	raw, err := msg.EncodeBody(payload, msgID, 0)
	require.NoError(t, err)
	return raw
}

func inbound(t *testing.T, src string, payload interface{}, msgID uint64) msg.Message {
	t.Helper()
	return msg.Message{
		Src:  src,
		Dest: "n1",
		Body: mustBody(t, payload, msgID),
	}
}
