package msg

// ErrorCode is a harness error code. The runtime never produces application
// errors itself but must be able to decode them.
type ErrorCode int

// Error codes defined by the harness protocol.
const (
	Timeout                ErrorCode = 0
	NodeNotFound           ErrorCode = 1
	NotSupported           ErrorCode = 10
	TemporarilyUnavailable ErrorCode = 11
	MalformedRequest       ErrorCode = 12
	Crash                  ErrorCode = 13
	Abort                  ErrorCode = 14
	KeyDoesNotExist        ErrorCode = 20
	KeyAlreadyExists       ErrorCode = 21
	PreconditionFailed     ErrorCode = 22
	TxnConflict            ErrorCode = 30
)

// Error is the wire error payload.
type Error struct {
	Type string    `json:"type"`
	Code ErrorCode `json:"code"`
	Text string    `json:"text"`
}
