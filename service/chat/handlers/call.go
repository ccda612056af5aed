package handlers

import (
	"UzChat/service/chat"
	"UzChat/tools/errs"
)

// CallHandler relays WebRTC signaling frames to the target user. The
// relay is stateless: no call table, no ordering checks, and an offline
// target drops the signal.
type CallHandler struct{}

func (h *CallHandler) Type() string { return chat.EnvCall }

func (h *CallHandler) Handle(ctx *chat.Context, env *chat.InboundEnvelope, c *chat.Client) error {
	sender := c.UserID()
	if sender == "" {
		return errs.ErrUnauthorized.WrapMsg("call before auth")
	}
	p, err := chat.DecodeCall(env)
	if err != nil {
		return errs.ErrBadRequest.WrapMsg("decode call payload", "err", err)
	}

	ctx.G.Router().HandleCall(sender, p)
	return nil
}
