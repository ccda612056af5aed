package handlers

import (
	"UzChat/service/chat"
	"UzChat/tools/errs"
)

// TypingHandler relays the indicator to the chat's other online
// participants. Nothing is persisted.
type TypingHandler struct{}

func (h *TypingHandler) Type() string { return chat.EnvTyping }

func (h *TypingHandler) Handle(ctx *chat.Context, env *chat.InboundEnvelope, c *chat.Client) error {
	sender := c.UserID()
	if sender == "" {
		return errs.ErrUnauthorized.WrapMsg("typing before auth")
	}
	p, err := chat.DecodeTyping(env)
	if err != nil {
		return errs.ErrBadRequest.WrapMsg("decode typing payload", "err", err)
	}
	if p.ChatID == 0 {
		return errs.ErrBadRequest.WrapMsg("typing requires chatId")
	}

	sctx, cancel := opCtx()
	defer cancel()
	return ctx.G.Router().HandleTyping(sctx, sender, p)
}
