package chat

import (
	"context"

	chatmodel "UzChat/module/chat/model"
	"UzChat/logger"
)

// Router resolves the recipient set for each inbound event kind and
// delivers through the registry. Storage calls never run under the
// registry lock; recipient lists are snapshotted first, sends happen
// outside any critical section.
type Router struct {
	store  Store
	reg    *Registry
	fanout *Fanout
}

func NewRouter(store Store, reg *Registry, fanout *Fanout) *Router {
	return &Router{store: store, reg: reg, fanout: fanout}
}

// HandleMessage persists the message, then delivers it (with the sender's
// display record) to every online participant except the sender. Live
// delivery is best effort; durability comes from the store alone, offline
// participants catch up over REST.
func (r *Router) HandleMessage(ctx context.Context, senderID string, p *MessagePayload) error {
	msg, err := r.store.CreateMessage(ctx, p.ChatID, senderID, p.Content)
	if err != nil {
		return err
	}
	sender, err := r.store.GetUser(ctx, senderID)
	if err != nil {
		return err
	}
	if sender == nil {
		logger.Warnf("[router] message from unknown sender=%s chat=%d", senderID, p.ChatID)
		return nil
	}
	event := &chatmodel.MessageWithSender{Message: *msg, Sender: sender}
	return r.deliverToChat(ctx, p.ChatID, senderID, EnvMessage, event)
}

// HandleTyping relays the indicator to the other participants. Nothing is
// persisted and nothing is debounced; that is the client's job.
func (r *Router) HandleTyping(ctx context.Context, senderID string, p *TypingPayload) error {
	event := TypingEvent{ChatID: p.ChatID, UserID: senderID, IsTyping: p.IsTyping}
	return r.deliverToChat(ctx, p.ChatID, senderID, EnvTyping, event)
}

// HandleRead records the read receipt. No envelope is fanned out; peers
// observe read state through polling.
func (r *Router) HandleRead(ctx context.Context, senderID string, p *ReadPayload) error {
	return r.store.MarkMessageAsRead(ctx, p.MessageID, senderID)
}

// HandleCall relays a signaling payload to exactly the target user. The
// gateway validates nothing about call-state ordering; an offline target
// means the signal is silently dropped.
func (r *Router) HandleCall(senderID string, p *CallPayload) {
	if p.TargetUserID == "" {
		logger.Infof("[router] call signal without target from=%s action=%s", senderID, p.Action)
		return
	}
	relay := CallPayload{
		Type:       p.Type,
		Action:     p.Action,
		ChatID:     p.ChatID,
		FromUserID: senderID,
		Offer:      p.Offer,
		Answer:     p.Answer,
		Candidate:  p.Candidate,
	}
	if !r.DeliverToUser(p.TargetUserID, EnvCall, relay) {
		logger.Debugf("[router] call target offline from=%s to=%s action=%s", senderID, p.TargetUserID, p.Action)
	}
}

// deliverToChat fans an envelope out to every online participant of the
// chat except the sender.
func (r *Router) deliverToChat(ctx context.Context, chatID int64, senderID, kind string, payload any) error {
	participants, err := r.store.GetChatParticipants(ctx, chatID)
	if err != nil {
		return err
	}
	data, err := MarshalEnvelope(kind, payload)
	if err != nil {
		return err
	}
	conns := make([]*Client, 0, len(participants))
	for _, p := range participants {
		if p.ID == senderID {
			continue
		}
		if c, ok := r.reg.Lookup(p.ID); ok {
			conns = append(conns, c)
		}
	}
	r.fanout.Broadcast(conns, data)
	return nil
}

// DeliverToUser pushes one envelope to a single user's live connection.
// Returns false when the user is offline or the enqueue failed.
func (r *Router) DeliverToUser(userID, kind string, payload any) bool {
	c, ok := r.reg.Lookup(userID)
	if !ok {
		return false
	}
	data, err := MarshalEnvelope(kind, payload)
	if err != nil {
		logger.Errorf("[router] marshal %s for user=%s err=%v", kind, userID, err)
		return false
	}
	return c.Enqueue(data)
}
