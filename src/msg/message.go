// Package msg defines the wire-level message model: the envelope exchanged
// with the test harness, the body header common to every payload, and the
// reserved handshake and error payloads that are part of every protocol's
// wire format.
package msg

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

// Reserved payload types. The handshake variants are decoded by the runtime
// itself; everything else belongs to the protocol implementation.
const (
	TypeInit   = "init"
	TypeInitOK = "init_ok"
	TypeError  = "error"
)

// jsonHandle is the shared codec handle for the line-delimited JSON wire
// format. Raw is enabled so that a Message can carry its body as undecoded
// bytes until a handler knows which payload type to expect.
var jsonHandle = func() *codec.JsonHandle {
	h := new(codec.JsonHandle)
	h.Raw = true
	return h
}()

// Handle returns the codec handle used for all wire encoding and decoding.
func Handle() codec.Handle {
	return jsonHandle
}

// Message is the envelope carrying sender, destination and body.
type Message struct {
	Src  string    `json:"src"`
	Dest string    `json:"dest"`
	Body codec.Raw `json:"body"`
}

// Body is the header common to every message body: the payload discriminant
// and the two correlation identifiers. A zero MsgID or InReplyTo means the
// field was absent on the wire.
type Body struct {
	Type      string `json:"type"`
	MsgID     uint64 `json:"msg_id,omitempty"`
	InReplyTo uint64 `json:"in_reply_to,omitempty"`
}

// Init is the handshake request sent by the harness to each node exactly
// once, before any other traffic.
type Init struct {
	Type  string `json:"type"`
	MsgID uint64 `json:"msg_id,omitempty"`

	// NodeID is the identifier assigned to the receiving node.
	NodeID string `json:"node_id"`

	// NodeIDs lists every node in the network, including the receiver. The
	// same list, in the same order, is sent to each node.
	NodeIDs []string `json:"node_ids"`
}

// InitOK is the handshake acknowledgement.
type InitOK struct {
	Type string `json:"type"`
}

// NewInitOK ...
func NewInitOK() InitOK {
	return InitOK{Type: TypeInitOK}
}

// ParseBody decodes only the body header from raw body bytes. This is the
// first phase of the two-phase decode: the caller inspects Type against the
// reserved tags before handing the raw bytes to a protocol-specific decode.
func ParseBody(raw codec.Raw) (Body, error) {
	var body Body
	if err := codec.NewDecoderBytes(raw, jsonHandle).Decode(&body); err != nil {
		return Body{}, fmt.Errorf("parsing body header: %v", err)
	}
	return body, nil
}

// ParseInit decodes raw body bytes as a handshake request.
func ParseInit(raw codec.Raw) (Init, error) {
	var init Init
	if err := codec.NewDecoderBytes(raw, jsonHandle).Decode(&init); err != nil {
		return Init{}, fmt.Errorf("parsing init body: %v", err)
	}
	return init, nil
}

// DecodeBody decodes raw body bytes into a protocol-specific payload type.
func DecodeBody(raw codec.Raw, v interface{}) error {
	return codec.NewDecoderBytes(raw, jsonHandle).Decode(v)
}

// EncodeBody serializes a payload and splices the correlation identifiers
// into the resulting object. Payload fields sit at the same level as msg_id
// and in_reply_to in the wire format, so the payload is flattened through an
// intermediate map. Zero identifiers are omitted.
func EncodeBody(payload interface{}, msgID uint64, inReplyTo uint64) (codec.Raw, error) {
	var encoded []byte
	if err := codec.NewEncoderBytes(&encoded, jsonHandle).Encode(payload); err != nil {
		return nil, fmt.Errorf("encoding payload: %v", err)
	}

	fields := map[string]interface{}{}
	if err := codec.NewDecoderBytes(encoded, jsonHandle).Decode(&fields); err != nil {
		return nil, fmt.Errorf("flattening payload: %v", err)
	}

	if msgID != 0 {
		fields["msg_id"] = msgID
	}
	if inReplyTo != 0 {
		fields["in_reply_to"] = inReplyTo
	}

	var out []byte
	if err := codec.NewEncoderBytes(&out, jsonHandle).Encode(fields); err != nil {
		return nil, fmt.Errorf("encoding body: %v", err)
	}

	return codec.Raw(out), nil
}
