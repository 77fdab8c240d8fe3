package translator

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
	"github.com/ambergate/ambergate/internal/translator/openaiwire"
)

func TestConvertMessage_PlainStringContent(t *testing.T) {
	msg := anthropicwire.Message{Role: "user", Content: anthropicwire.MessageContent{Text: "hello"}}
	out, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("convertMessage failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("out = %+v, want one message", out)
	}
	var got string
	if err := json.Unmarshal(out[0].Content, &got); err != nil {
		t.Fatalf("unmarshal content: %v", err)
	}
	if got != "hello" {
		t.Errorf("content = %q, want %q", got, "hello")
	}
}

func TestConvertMessage_AssistantTextOnly(t *testing.T) {
	msg := anthropicwire.Message{
		Role: "assistant",
		Content: anthropicwire.MessageContent{
			IsBlocks: true,
			Blocks: []anthropicwire.ContentBlock{
				{Type: "text", Text: "part one "},
				{Type: "text", Text: "part two"},
			},
		},
	}
	out, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("convertMessage failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("out = %+v, want one message", out)
	}
	var got string
	if err := json.Unmarshal(out[0].Content, &got); err != nil {
		t.Fatalf("unmarshal content: %v", err)
	}
	if got != "part one part two" {
		t.Errorf("content = %q, want %q", got, "part one part two")
	}
}

func TestConvertMessage_AssistantNoTextIsNull(t *testing.T) {
	msg := anthropicwire.Message{
		Role: "assistant",
		Content: anthropicwire.MessageContent{
			IsBlocks: true,
			Blocks: []anthropicwire.ContentBlock{
				{Type: "tool_use", ID: "call_1", Name: "get_weather", Input: json.RawMessage(`{"city":"nyc"}`)},
			},
		},
	}
	out, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("convertMessage failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("out = %+v, want one message", out)
	}
	if string(out[0].Content) != "null" {
		t.Errorf("content = %s, want null", out[0].Content)
	}
	if len(out[0].ToolCalls) != 1 || out[0].ToolCalls[0].ID != "call_1" {
		t.Errorf("ToolCalls = %+v", out[0].ToolCalls)
	}
}

func TestConvertMessage_ToolResultTakesPriority(t *testing.T) {
	msg := anthropicwire.Message{
		Role: "user",
		Content: anthropicwire.MessageContent{
			IsBlocks: true,
			Blocks: []anthropicwire.ContentBlock{
				{Type: "text", Text: "ignored because tool_result is present"},
				{
					Type:      "tool_result",
					ToolUseID: "call_1",
					Content:   &anthropicwire.ToolResultContent{Text: "72F and sunny"},
				},
			},
		},
	}
	out, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("convertMessage failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("out = %+v, want one tool message", out)
	}
	if out[0].Role != "tool" {
		t.Errorf("Role = %q, want %q", out[0].Role, "tool")
	}
	if out[0].ToolCallID != "call_1" {
		t.Errorf("ToolCallID = %q, want %q", out[0].ToolCallID, "call_1")
	}
	var got string
	if err := json.Unmarshal(out[0].Content, &got); err != nil {
		t.Fatalf("unmarshal content: %v", err)
	}
	if got != "72F and sunny" {
		t.Errorf("content = %q, want %q", got, "72F and sunny")
	}
}

func TestConvertMessage_ToolResultWithBlockContent(t *testing.T) {
	msg := anthropicwire.Message{
		Role: "user",
		Content: anthropicwire.MessageContent{
			IsBlocks: true,
			Blocks: []anthropicwire.ContentBlock{
				{
					Type:      "tool_result",
					ToolUseID: "call_1",
					Content: &anthropicwire.ToolResultContent{
						IsBlocks: true,
						Blocks: []anthropicwire.ContentBlock{
							{Type: "text", Text: "line one"},
							{Type: "text", Text: " line two"},
						},
					},
				},
			},
		},
	}
	out, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("convertMessage failed: %v", err)
	}
	var got string
	if err := json.Unmarshal(out[0].Content, &got); err != nil {
		t.Fatalf("unmarshal content: %v", err)
	}
	if got != "line one line two" {
		t.Errorf("content = %q, want %q", got, "line one line two")
	}
}

func TestConvertMessage_UserWithNoContentPartsIsNil(t *testing.T) {
	msg := anthropicwire.Message{
		Role: "user",
		Content: anthropicwire.MessageContent{
			IsBlocks: true,
			Blocks: []anthropicwire.ContentBlock{
				{Type: "thinking", Thinking: "dropped, no upstream encoding"},
			},
		},
	}
	out, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("convertMessage failed: %v", err)
	}
	if out != nil {
		t.Errorf("out = %+v, want nil", out)
	}
}

func TestConvertMessage_UnrecognizedBlockDropped(t *testing.T) {
	msg := anthropicwire.Message{
		Role: "user",
		Content: anthropicwire.MessageContent{
			IsBlocks: true,
			Blocks: []anthropicwire.ContentBlock{
				{Type: "text", Text: "kept"},
				{Type: "server_tool_use"},
			},
		},
	}
	out, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("convertMessage failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("out = %+v, want one message", out)
	}
	var parts []openaiwire.ContentPart
	if err := json.Unmarshal(out[0].Content, &parts); err != nil {
		t.Fatalf("unmarshal content parts: %v", err)
	}
	if len(parts) != 1 || parts[0].Text != "kept" {
		t.Errorf("parts = %+v, want only the text block", parts)
	}
}

func TestConvertImageBlock(t *testing.T) {
	tests := []struct {
		name    string
		block   anthropicwire.ContentBlock
		wantURL string
		wantErr bool
	}{
		{
			name: "base64 source builds a data URL",
			block: anthropicwire.ContentBlock{
				Type:   "image",
				Source: &anthropicwire.Source{Type: "base64", MediaType: "image/png", Data: "AAA="},
			},
			wantURL: "data:image/png;base64,AAA=",
		},
		{
			name: "url source passes through",
			block: anthropicwire.ContentBlock{
				Type:   "image",
				Source: &anthropicwire.Source{Type: "url", URL: "https://example.com/cat.png"},
			},
			wantURL: "https://example.com/cat.png",
		},
		{
			name:    "missing source errors",
			block:   anthropicwire.ContentBlock{Type: "image"},
			wantErr: true,
		},
		{
			name: "unsupported source type errors",
			block: anthropicwire.ContentBlock{
				Type:   "image",
				Source: &anthropicwire.Source{Type: "file_id"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, err := convertImageBlock(tt.block)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("convertImageBlock failed: %v", err)
			}
			if part.ImageURL == nil || part.ImageURL.URL != tt.wantURL {
				t.Errorf("ImageURL = %+v, want URL %q", part.ImageURL, tt.wantURL)
			}
		})
	}
}

func TestConvertDocumentBlock(t *testing.T) {
	tests := []struct {
		name         string
		block        anthropicwire.ContentBlock
		wantFileData string
		wantErr      bool
	}{
		{
			name: "base64 source passes through unchanged",
			block: anthropicwire.ContentBlock{
				Type:   "document",
				Title:  "report.pdf",
				Source: &anthropicwire.Source{Type: "base64", Data: "AAA="},
			},
			wantFileData: "AAA=",
		},
		{
			name: "text source is base64 encoded",
			block: anthropicwire.ContentBlock{
				Type:   "document",
				Source: &anthropicwire.Source{Type: "text", Data: "plain text"},
			},
			wantFileData: base64.StdEncoding.EncodeToString([]byte("plain text")),
		},
		{
			name: "content source string is extracted then base64 encoded",
			block: anthropicwire.ContentBlock{
				Type:   "document",
				Source: &anthropicwire.Source{Type: "content", Content: json.RawMessage(`"raw"`)},
			},
			wantFileData: base64.StdEncoding.EncodeToString([]byte("raw")),
		},
		{
			name: "content source block list is concatenated then base64 encoded",
			block: anthropicwire.ContentBlock{
				Type: "document",
				Source: &anthropicwire.Source{
					Type:    "content",
					Content: json.RawMessage(`[{"type":"text","text":"part one "},{"type":"text","text":"part two"}]`),
				},
			},
			wantFileData: base64.StdEncoding.EncodeToString([]byte("part one part two")),
		},
		{
			name: "content source with invalid JSON errors",
			block: anthropicwire.ContentBlock{
				Type:   "document",
				Source: &anthropicwire.Source{Type: "content", Content: json.RawMessage(`not json`)},
			},
			wantErr: true,
		},
		{
			name:    "missing source errors",
			block:   anthropicwire.ContentBlock{Type: "document"},
			wantErr: true,
		},
		{
			name: "unsupported source type errors",
			block: anthropicwire.ContentBlock{
				Type:   "document",
				Source: &anthropicwire.Source{Type: "url"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, err := convertDocumentBlock(tt.block)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("convertDocumentBlock failed: %v", err)
			}
			if part.File == nil || part.File.FileData != tt.wantFileData {
				t.Errorf("File = %+v, want FileData %q", part.File, tt.wantFileData)
			}
		})
	}
}

func TestConvertToolUseBlock_EmptyInputDefaultsToObject(t *testing.T) {
	call := convertToolUseBlock(anthropicwire.ContentBlock{Type: "tool_use", ID: "call_1", Name: "noop"})
	if call.Function.Arguments != "{}" {
		t.Errorf("Arguments = %q, want %q", call.Function.Arguments, "{}")
	}
}

func TestRawString(t *testing.T) {
	got := rawString(`with "quotes"`)
	var decoded string
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != `with "quotes"` {
		t.Errorf("decoded = %q, want %q", decoded, `with "quotes"`)
	}
}
