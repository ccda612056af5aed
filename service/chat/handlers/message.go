package handlers

import (
	"UzChat/service/chat"
	"UzChat/tools/errs"
)

// MessageHandler persists the message and fans it out to the chat's other
// online participants. Requires a bound connection.
type MessageHandler struct{}

func (h *MessageHandler) Type() string { return chat.EnvMessage }

func (h *MessageHandler) Handle(ctx *chat.Context, env *chat.InboundEnvelope, c *chat.Client) error {
	sender := c.UserID()
	if sender == "" {
		return errs.ErrUnauthorized.WrapMsg("message before auth")
	}
	p, err := chat.DecodeMessage(env)
	if err != nil {
		return errs.ErrBadRequest.WrapMsg("decode message payload", "err", err)
	}
	if p.ChatID == 0 || p.Content == "" {
		return errs.ErrBadRequest.WrapMsg("message requires chatId and content")
	}

	sctx, cancel := opCtx()
	defer cancel()
	return ctx.G.Router().HandleMessage(sctx, sender, p)
}
