package common

import "fmt"

// ProtoErrType enumerates the internal protocol errors that the runtime and
// services can produce. These are distinct from transport errors: they signal
// that a message arrived at the wrong time or with the wrong shape, not that
// the underlying streams failed.
type ProtoErrType uint32

const (
	// NeedsInit - the first message received was not an init request.
	NeedsInit ProtoErrType = iota
	// AlreadyInit - an init request arrived after the handshake completed.
	AlreadyInit
	// Eof - the inbound stream ended before the handshake completed.
	Eof
	// MissingMsgID - a request that requires a reply carried no msg_id.
	MissingMsgID
	// NoKnownSet - no known-set entry exists for a gossip destination.
	NoKnownSet
)

// ProtoErr ...
type ProtoErr struct {
	errType ProtoErrType
	subject string
}

// NewProtoErr ...
func NewProtoErr(errType ProtoErrType, subject string) ProtoErr {
	return ProtoErr{
		errType: errType,
		subject: subject,
	}
}

// Error ...
func (e ProtoErr) Error() string {
	m := ""
	switch e.errType {
	case NeedsInit:
		m = "Not Initialized"
	case AlreadyInit:
		m = "Already Initialized"
	case Eof:
		m = "Unexpected End Of Input"
	case MissingMsgID:
		m = "Missing Message ID"
	case NoKnownSet:
		m = "No Known-Set Entry"
	}

	if e.subject == "" {
		return m
	}

	return fmt.Sprintf("%s, %s", e.subject, m)
}

// IsProto checks that an error is of type ProtoErr and that its code matches
// the provided ProtoErrType.
func IsProto(err error, t ProtoErrType) bool {
	protoErr, ok := err.(ProtoErr)
	return ok && protoErr.errType == t
}
