package decode

import (
	"encoding/json"
	"testing"
)

type msgPayload struct {
	ChatID  int64  `json:"chatId"`
	Content string `json:"content"`
}

func TestDecodeMapJSONNumbers(t *testing.T) {
	// numbers arriving through encoding/json are float64
	var m map[string]any
	if err := json.Unmarshal([]byte(`{"chatId":9007199254740991,"content":"ok"}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p, err := DecodeMap[msgPayload](m)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ChatID != 9007199254740991 || p.Content != "ok" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestDecodeMapIgnoresUnknownKeys(t *testing.T) {
	p, err := DecodeMap[msgPayload](map[string]any{
		"chatId":  float64(3),
		"content": "hi",
		"extra":   "ignored",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ChatID != 3 {
		t.Fatalf("chatId = %d", p.ChatID)
	}
}

func TestDecodeMapNil(t *testing.T) {
	if _, err := DecodeMap[msgPayload](nil); err == nil {
		t.Fatal("nil map accepted")
	}
}
