package anthropicwire

import (
	"encoding/json"
	"testing"
)

func TestContentBlock_TextMarshalsExplicitNullCitations(t *testing.T) {
	block := ContentBlock{Type: "text", Text: "hello"}

	encoded, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	raw, ok := got["citations"]
	if !ok {
		t.Fatalf("citations key is missing from %s, want an explicit null", encoded)
	}
	if string(raw) != "null" {
		t.Errorf("citations = %s, want null", raw)
	}
}

func TestResponse_TextContentMarshalsExpectedShape(t *testing.T) {
	resp := Response{
		ID:      "msg_1",
		Type:    "message",
		Role:    "assistant",
		Content: []ContentBlock{{Type: "text", Text: "hello"}},
		Model:   "gpt-4o",
		Usage:   NewUsage(1, 2),
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got struct {
		Content []map[string]json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(encoded, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(got.Content) != 1 {
		t.Fatalf("Content = %+v, want one block", got.Content)
	}
	block := got.Content[0]
	if string(block["type"]) != `"text"` || string(block["text"]) != `"hello"` {
		t.Errorf("block = %+v", block)
	}
	if string(block["citations"]) != "null" {
		t.Errorf("citations = %s, want null", block["citations"])
	}
}
