package handlers

import (
	"UzChat/service/chat"
	"UzChat/tools/errs"
)

// ReadHandler records a read receipt for a message on behalf of the
// bound user.
type ReadHandler struct{}

func (h *ReadHandler) Type() string { return chat.EnvRead }

func (h *ReadHandler) Handle(ctx *chat.Context, env *chat.InboundEnvelope, c *chat.Client) error {
	reader := c.UserID()
	if reader == "" {
		return errs.ErrUnauthorized.WrapMsg("read before auth")
	}
	p, err := chat.DecodeRead(env)
	if err != nil {
		return errs.ErrBadRequest.WrapMsg("decode read payload", "err", err)
	}
	if p.MessageID == 0 {
		return errs.ErrBadRequest.WrapMsg("read requires messageId")
	}

	sctx, cancel := opCtx()
	defer cancel()
	return ctx.G.Router().HandleRead(sctx, reader, p)
}
