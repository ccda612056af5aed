package chat

import (
	"encoding/json"
	"fmt"

	chatmodel "UzChat/module/chat/model"
	decode "UzChat/tools/decode"
)

// Envelope kinds on the wire. user_online / user_offline are
// server-to-client only.
const (
	EnvAuth        = "auth"
	EnvMessage     = "message"
	EnvTyping      = "typing"
	EnvRead        = "read"
	EnvCall        = "call"
	EnvUserOnline  = "user_online"
	EnvUserOffline = "user_offline"
)

// Envelope is the outbound frame: {"type": ..., "payload": {...}}.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// InboundEnvelope keeps the payload generic; handlers decode it into their
// own payload struct.
type InboundEnvelope struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func ParseEnvelope(raw []byte) (*InboundEnvelope, error) {
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope missing type")
	}
	return &env, nil
}

func MarshalEnvelope(kind string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Type: kind, Payload: payload})
}

// ---- client-to-server payloads ----

type AuthPayload struct {
	UserID string `json:"userId"`
}

type MessagePayload struct {
	ChatID  int64  `json:"chatId"`
	Content string `json:"content"`
}

type TypingPayload struct {
	ChatID   int64 `json:"chatId"`
	IsTyping bool  `json:"isTyping"`
}

type ReadPayload struct {
	MessageID int64 `json:"messageId"`
}

// CallPayload carries WebRTC signaling. Offer/answer/candidate are opaque
// to the gateway; it only routes them to TargetUserID.
type CallPayload struct {
	Type         string `json:"type"`   // audio | video
	Action       string `json:"action"` // initiate|accept|reject|end|offer|answer|ice-candidate
	TargetUserID string `json:"targetUserId,omitempty"`
	ChatID       int64  `json:"chatId,omitempty"`
	FromUserID   string `json:"fromUserId,omitempty"` // set by the server on relay
	Offer        any    `json:"offer,omitempty"`
	Answer       any    `json:"answer,omitempty"`
	Candidate    any    `json:"candidate,omitempty"`
}

// ---- server-to-client payloads ----

type PresencePayload struct {
	UserID string `json:"userId"`
}

// TypingEvent is the relayed typing payload with the sender filled in.
type TypingEvent struct {
	ChatID   int64  `json:"chatId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// MessageEvent is the persisted message plus its sender record.
type MessageEvent = chatmodel.MessageWithSender

// ---- payload decoding ----

func DecodeAuth(env *InboundEnvelope) (*AuthPayload, error) {
	return decode.DecodeMap[AuthPayload](env.Payload)
}

func DecodeMessage(env *InboundEnvelope) (*MessagePayload, error) {
	return decode.DecodeMap[MessagePayload](env.Payload)
}

func DecodeTyping(env *InboundEnvelope) (*TypingPayload, error) {
	return decode.DecodeMap[TypingPayload](env.Payload)
}

func DecodeRead(env *InboundEnvelope) (*ReadPayload, error) {
	return decode.DecodeMap[ReadPayload](env.Payload)
}

func DecodeCall(env *InboundEnvelope) (*CallPayload, error) {
	return decode.DecodeMap[CallPayload](env.Payload)
}
