package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/natterlabs/natter/src/common"
	"github.com/natterlabs/natter/src/msg"
)

const (
	typeGenerate   = "generate"
	typeGenerateOK = "generate_ok"
)

type generateOK struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// UniqueIDService hands out identifiers that are unique across the whole
// network: the node identifier joined with a per-node counter.
type UniqueIDService struct {
	next uint64
}

// NewUniqueIDService ...
func NewUniqueIDService() *UniqueIDService {
	return &UniqueIDService{}
}

// Init implements the Service interface.
func (s *UniqueIDService) Init(ctx context.Context, rt Runtime, nodeIDs []string) error {
	return nil
}

// HandleMessage implements the Service interface.
func (s *UniqueIDService) HandleMessage(ctx context.Context, m msg.Message, rt Runtime) error {
	header, err := msg.ParseBody(m.Body)
	if err != nil {
		return err
	}

	switch header.Type {
	case typeGenerate:
		if header.MsgID == 0 {
			return common.NewProtoErr(common.MissingMsgID, header.Type)
		}

		n := atomic.AddUint64(&s.next, 1)

		return rt.Reply(m.Src, header.MsgID, generateOK{
			Type: typeGenerateOK,
			ID:   fmt.Sprintf("%s-%d", rt.ID(), n),
		})

	default:
		rt.Logger().WithField("type", header.Type).Warn("Unexpected message")
		return nil
	}
}
