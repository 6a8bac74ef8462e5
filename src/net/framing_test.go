package net

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/natterlabs/natter/src/msg"
)

func testMessage(t *testing.T, msgID uint64) msg.Message {
	body, err := msg.EncodeBody(msg.Init{
		Type:    msg.TypeInit,
		NodeID:  "n1",
		NodeIDs: []string{"n1", "n2", "n3"},
	}, msgID, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	return msg.Message{
		Src:  "c1",
		Dest: "n1",
		Body: body,
	}
}

func decodedFields(t *testing.T, m msg.Message) map[string]interface{} {
	var fields map[string]interface{}
	if err := msg.DecodeBody(m.Body, &fields); err != nil {
		t.Fatalf("err: %v", err)
	}
	return fields
}

func TestFramingRoundTrip(t *testing.T) {
	original := testMessage(t, 1)

	buf := new(bytes.Buffer)
	enc := NewEncoder(buf)
	if err := enc.Encode(original); err != nil {
		t.Fatalf("err: %v", err)
	}

	dec := &Decoder{}
	dec.Write(buf.Bytes())

	decoded, ok, err := dec.Next()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !ok {
		t.Fatal("expected a complete value")
	}

	if decoded.Src != original.Src || decoded.Dest != original.Dest {
		t.Fatalf("envelope mismatch: %+v != %+v", decoded, original)
	}

	if !reflect.DeepEqual(decodedFields(t, decoded), decodedFields(t, original)) {
		t.Fatalf("body mismatch")
	}
}

func TestFramingTruncatedPrefix(t *testing.T) {
	buf := new(bytes.Buffer)
	enc := NewEncoder(buf)
	if err := enc.Encode(testMessage(t, 1)); err != nil {
		t.Fatalf("err: %v", err)
	}

	encoded := buf.Bytes()

	dec := &Decoder{}
	dec.Write(encoded[:len(encoded)-5])

	// A truncated prefix is not an error; the bytes are retained.
	_, ok, err := dec.Next()
	if err != nil {
		t.Fatalf("expected no value yet, got error: %v", err)
	}
	if ok {
		t.Fatal("expected no value yet")
	}
	if !dec.Pending() {
		t.Fatal("expected pending bytes")
	}

	// Completing the value makes it decodable.
	dec.Write(encoded[len(encoded)-5:])

	_, ok, err = dec.Next()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !ok {
		t.Fatal("expected a complete value")
	}
	if dec.Pending() {
		t.Fatal("expected empty buffer")
	}
}

func TestFramingMultipleValuesPerFeed(t *testing.T) {
	buf := new(bytes.Buffer)
	enc := NewEncoder(buf)
	for i := uint64(1); i <= 3; i++ {
		if err := enc.Encode(testMessage(t, i)); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	dec := &Decoder{}
	dec.Write(buf.Bytes())

	for i := uint64(1); i <= 3; i++ {
		m, ok, err := dec.Next()
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if !ok {
			t.Fatalf("expected value %d", i)
		}

		header, err := msg.ParseBody(m.Body)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if header.MsgID != i {
			t.Fatalf("expected msg_id %d, got %d", i, header.MsgID)
		}
	}

	if _, ok, _ := dec.Next(); ok {
		t.Fatal("expected no further values")
	}
}

func TestFramingMalformedValue(t *testing.T) {
	dec := &Decoder{}
	dec.Write([]byte("{this is not json}\n"))

	_, _, err := dec.Next()
	if err == nil {
		t.Fatal("expected terminal decode error")
	}
}

func TestFramingSkipsBlankLines(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString("\n  \n")

	enc := NewEncoder(buf)
	if err := enc.Encode(testMessage(t, 1)); err != nil {
		t.Fatalf("err: %v", err)
	}

	dec := &Decoder{}
	dec.Write(buf.Bytes())

	_, ok, err := dec.Next()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !ok {
		t.Fatal("expected a complete value after blank lines")
	}
}
