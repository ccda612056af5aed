package chat

import (
	"context"
	"time"

	"UzChat/logger"
	"UzChat/service/storage"
)

// Presence owns the online/offline transitions. It is called exactly once
// per bind (MarkOnline) and once per teardown of a bound connection
// (MarkOffline); the registry's identity-checked unbind guarantees that.
//
// The persistence write happens before the broadcast so a client that
// receives the event and immediately polls the REST API sees consistent
// state. A failed write is logged and does not suppress the broadcast;
// presence is best effort, not transactional.
type Presence struct {
	store    Store
	reg      *Registry
	fanout   *Fanout
	redisTTL time.Duration
}

func NewPresence(store Store, reg *Registry, fanout *Fanout) *Presence {
	return &Presence{store: store, reg: reg, fanout: fanout, redisTTL: 5 * time.Minute}
}

func (p *Presence) MarkOnline(ctx context.Context, userID string) {
	if err := p.store.UpdateUserOnlineStatus(ctx, userID, true); err != nil {
		logger.Errorf("[presence] persist online user=%s err=%v", userID, err)
	}
	p.mirror(userID, true)
	p.broadcast(EnvUserOnline, userID)
}

func (p *Presence) MarkOffline(ctx context.Context, userID string) {
	if err := p.store.UpdateUserOnlineStatus(ctx, userID, false); err != nil {
		logger.Errorf("[presence] persist offline user=%s err=%v", userID, err)
	}
	p.mirror(userID, false)
	p.broadcast(EnvUserOffline, userID)
}

// mirror keeps the redis presence key in step when redis is configured.
func (p *Presence) mirror(userID string, online bool) {
	if !storage.RedisEnabled() {
		return
	}
	var err error
	if online {
		err = storage.PresenceOnline(userID, p.redisTTL)
	} else {
		err = storage.PresenceOffline(userID)
	}
	if err != nil {
		logger.Warnf("[presence] redis mirror user=%s online=%v err=%v", userID, online, err)
	}
}

func (p *Presence) broadcast(kind, userID string) {
	data, err := MarshalEnvelope(kind, PresencePayload{UserID: userID})
	if err != nil {
		logger.Errorf("[presence] marshal %s user=%s err=%v", kind, userID, err)
		return
	}
	p.fanout.Broadcast(p.reg.Snapshot(userID), data)
}
