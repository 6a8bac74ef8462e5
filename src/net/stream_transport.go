package net

import (
	"io"
	"sync"

	"github.com/natterlabs/natter/src/msg"
	"github.com/sirupsen/logrus"
)

// StreamTransport implements the Transport interface over a pair of byte
// streams, typically stdin and stdout. This is the transport used when
// running under the test harness.
type StreamTransport struct {
	r   io.Reader
	enc *Encoder
	dec *Decoder

	consumerCh chan msg.Message

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	closeCh   chan struct{}

	logger *logrus.Entry
}

// NewStreamTransport returns a StreamTransport reading envelopes from r and
// writing them to w. Listen must be called before messages are consumed.
func NewStreamTransport(r io.Reader, w io.Writer, logger *logrus.Entry) *StreamTransport {
	return &StreamTransport{
		r:          r,
		enc:        NewEncoder(w),
		dec:        &Decoder{},
		consumerCh: make(chan msg.Message),
		closeCh:    make(chan struct{}),
		logger:     logger,
	}
}

// Listen implements the Transport interface.
func (t *StreamTransport) Listen() {
	go t.listen()
}

func (t *StreamTransport) listen() {
	defer close(t.consumerCh)

	buf := make([]byte, 4096)

	for {
		n, readErr := t.r.Read(buf)
		if n > 0 {
			t.dec.Write(buf[:n])
		}

		for {
			m, ok, err := t.dec.Next()
			if err != nil {
				t.logger.WithError(err).Error("Terminal decode error")
				t.setErr(err)
				return
			}
			if !ok {
				break
			}

			select {
			case t.consumerCh <- m:
			case <-t.closeCh:
				return
			}
		}

		if readErr == io.EOF {
			if t.dec.Pending() {
				t.setErr(io.ErrUnexpectedEOF)
			}
			return
		}
		if readErr != nil {
			t.setErr(readErr)
			return
		}
	}
}

// Consumer implements the Transport interface.
func (t *StreamTransport) Consumer() <-chan msg.Message {
	return t.consumerCh
}

// Send implements the Transport interface. The Encoder serializes concurrent
// callers internally.
func (t *StreamTransport) Send(m msg.Message) error {
	return t.enc.Encode(m)
}

// Err implements the Transport interface.
func (t *StreamTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *StreamTransport) setErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

// Close implements the Transport interface. The blocked Read on the inbound
// stream is abandoned; it ends when the hosting process closes the stream.
func (t *StreamTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closeCh)
	})
	return nil
}
