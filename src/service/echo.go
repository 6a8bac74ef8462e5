package service

import (
	"context"

	"github.com/natterlabs/natter/src/common"
	"github.com/natterlabs/natter/src/msg"
)

const (
	typeEcho   = "echo"
	typeEchoOK = "echo_ok"
)

type echoBody struct {
	Type string      `json:"type"`
	Echo interface{} `json:"echo"`
}

// EchoService replies to every echo request with an echo_ok carrying the
// same payload. The simplest possible Service.
type EchoService struct{}

// NewEchoService ...
func NewEchoService() *EchoService {
	return &EchoService{}
}

// Init implements the Service interface.
func (s *EchoService) Init(ctx context.Context, rt Runtime, nodeIDs []string) error {
	return nil
}

// HandleMessage implements the Service interface.
func (s *EchoService) HandleMessage(ctx context.Context, m msg.Message, rt Runtime) error {
	header, err := msg.ParseBody(m.Body)
	if err != nil {
		return err
	}

	switch header.Type {
	case typeEcho:
		if header.MsgID == 0 {
			return common.NewProtoErr(common.MissingMsgID, header.Type)
		}

		var body echoBody
		if err := msg.DecodeBody(m.Body, &body); err != nil {
			return err
		}

		return rt.Reply(m.Src, header.MsgID, echoBody{
			Type: typeEchoOK,
			Echo: body.Echo,
		})

	default:
		rt.Logger().WithField("type", header.Type).Warn("Unexpected message")
		return nil
	}
}
