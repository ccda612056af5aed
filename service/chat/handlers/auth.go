package handlers

import (
	"UzChat/logger"
	"UzChat/service/chat"
	"UzChat/tools/errs"
)

// AuthHandler binds a connection to a user. Binding is last-write-wins:
// when the same user authenticates on a second connection, the new one
// becomes authoritative and the old one is superseded (left open, no
// longer addressed).
type AuthHandler struct{}

func (h *AuthHandler) Type() string { return chat.EnvAuth }

func (h *AuthHandler) Handle(ctx *chat.Context, env *chat.InboundEnvelope, c *chat.Client) error {
	p, err := chat.DecodeAuth(env)
	if err != nil {
		return errs.ErrBadRequest.WrapMsg("decode auth payload", "err", err)
	}
	if p.UserID == "" {
		return errs.ErrBadRequest.WrapMsg("auth without userId")
	}

	g := ctx.G

	sctx, cancel := opCtx()
	defer cancel()
	u, err := g.StoreRef().GetUser(sctx, p.UserID)
	if err != nil {
		return errs.ErrInternal.WrapMsg("load user for auth", "err", err)
	}
	if u == nil {
		logger.Warnf("[auth] unknown user=%s conn=%s", p.UserID, c.ConnID)
		return errs.ErrNotFound.WrapMsg("unknown user " + p.UserID)
	}

	// Re-auth on a live connection as somebody else: release the old
	// identity first so its presence state stays truthful.
	if old := c.UserID(); old != "" && old != p.UserID {
		if g.Registry().Unbind(old, c) {
			g.Presence().MarkOffline(sctx, old)
		}
	}

	c.Bind(p.UserID)
	prev := g.Registry().Bind(p.UserID, c)
	if prev != nil {
		logger.Infof("[auth] user=%s rebound conn=%s supersedes conn=%s", p.UserID, c.ConnID, prev.ConnID)
	} else {
		logger.Infof("[auth] user=%s bound conn=%s", p.UserID, c.ConnID)
	}

	g.Presence().MarkOnline(sctx, p.UserID)
	return nil
}
