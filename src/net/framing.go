package net

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/natterlabs/natter/src/msg"
	"github.com/ugorji/go/codec"
)

// Decoder turns a stream of bytes into a stream of decoded envelopes. Bytes
// are fed in with Write as they arrive; Next yields one envelope per complete
// newline-terminated JSON value. A buffer holding only the prefix of a value
// is not an error: Next reports that no value is available yet and the bytes
// are retained for the next attempt. A complete but malformed value is a
// terminal error, because it means the stream is desynchronized.
type Decoder struct {
	buf bytes.Buffer
}

// Write feeds raw bytes into the decode buffer.
func (d *Decoder) Write(p []byte) (int, error) {
	return d.buf.Write(p)
}

// Next attempts to decode one envelope from the buffered bytes. The second
// return value reports whether a complete value was available.
func (d *Decoder) Next() (msg.Message, bool, error) {
	for {
		data := d.buf.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return msg.Message{}, false, nil
		}

		line := make([]byte, i+1)
		if _, err := d.buf.Read(line); err != nil {
			return msg.Message{}, false, err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var m msg.Message
		if err := codec.NewDecoderBytes(line, msg.Handle()).Decode(&m); err != nil {
			return msg.Message{}, false, fmt.Errorf("malformed message: %v", err)
		}

		return m, true, nil
	}
}

// Pending reports whether the buffer still holds bytes that are not just
// whitespace. Used at end-of-input to tell a clean shutdown from a stream
// truncated mid-value.
func (d *Decoder) Pending() bool {
	return len(bytes.TrimSpace(d.buf.Bytes())) > 0
}

// Encoder writes envelopes to a byte stream, one newline-terminated JSON
// value per Send call. It is the single logical owner of the write half;
// concurrent callers serialize on its lock, first-come-first-served.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder ...
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode serializes one envelope and writes it with a trailing newline.
func (e *Encoder) Encode(m msg.Message) error {
	var line []byte
	if err := codec.NewEncoderBytes(&line, msg.Handle()).Encode(m); err != nil {
		return fmt.Errorf("encoding message: %v", err)
	}
	line = append(line, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(line); err != nil {
		return fmt.Errorf("writing message: %v", err)
	}

	return nil
}
