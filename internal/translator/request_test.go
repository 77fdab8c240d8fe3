package translator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
)

func TestTransformRequest_BasicFields(t *testing.T) {
	maxTokens := int64(1024)
	temp := 0.5
	topP := 0.9

	req := anthropicwire.Request{
		Model:         "claude-3-5-sonnet",
		Stream:        true,
		MaxTokens:     &maxTokens,
		Temperature:   &temp,
		TopP:          &topP,
		StopSequences: []string{"STOP"},
		Messages: []anthropicwire.Message{
			{Role: "user", Content: anthropicwire.MessageContent{Text: "hi"}},
		},
	}

	out, err := TransformRequest(req)
	if err != nil {
		t.Fatalf("TransformRequest failed: %v", err)
	}

	if out.Model != "claude-3-5-sonnet" {
		t.Errorf("Model = %q, want %q", out.Model, "claude-3-5-sonnet")
	}
	if !out.Stream {
		t.Error("Stream = false, want true")
	}
	if out.MaxCompletionTokens == nil || *out.MaxCompletionTokens != 1024 {
		t.Errorf("MaxCompletionTokens = %v, want 1024", out.MaxCompletionTokens)
	}
	if out.Temperature == nil || *out.Temperature != 0.5 {
		t.Errorf("Temperature = %v, want 0.5", out.Temperature)
	}
	if out.TopP == nil || *out.TopP != 0.9 {
		t.Errorf("TopP = %v, want 0.9", out.TopP)
	}
	if len(out.Stop) != 1 || out.Stop[0] != "STOP" {
		t.Errorf("Stop = %v, want [STOP]", out.Stop)
	}
	if len(out.Messages) != 1 || out.Messages[0].Role != "user" {
		t.Fatalf("Messages = %+v, want one user message", out.Messages)
	}
}

func TestTransformRequest_EmptyStopSequencesOmitted(t *testing.T) {
	req := anthropicwire.Request{
		Model:    "claude-3-5-sonnet",
		Messages: []anthropicwire.Message{{Role: "user", Content: anthropicwire.MessageContent{Text: "hi"}}},
	}
	out, err := TransformRequest(req)
	if err != nil {
		t.Fatalf("TransformRequest failed: %v", err)
	}
	if out.Stop != nil {
		t.Errorf("Stop = %v, want nil", out.Stop)
	}
}

func TestTransformRequest_SystemHoisting(t *testing.T) {
	tests := []struct {
		name       string
		system     *anthropicwire.SystemContent
		wantFirst  bool
		wantSystem string
	}{
		{
			name:      "nil system produces no system message",
			system:    nil,
			wantFirst: false,
		},
		{
			name:       "plain string system",
			system:     &anthropicwire.SystemContent{Text: "be helpful"},
			wantFirst:  true,
			wantSystem: "be helpful",
		},
		{
			name:       "empty string system still emits a message",
			system:     &anthropicwire.SystemContent{Text: ""},
			wantFirst:  true,
			wantSystem: "",
		},
		{
			name: "block list system concatenated with no separator",
			system: &anthropicwire.SystemContent{Blocks: []anthropicwire.ContentBlock{
				{Type: "text", Text: "be "},
				{Type: "text", Text: "helpful"},
			}},
			wantFirst:  true,
			wantSystem: "be helpful",
		},
		{
			name: "block list with all-empty text produces no message",
			system: &anthropicwire.SystemContent{Blocks: []anthropicwire.ContentBlock{
				{Type: "text", Text: ""},
			}},
			wantFirst: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := anthropicwire.Request{
				Model:  "claude-3-5-sonnet",
				System: tt.system,
				Messages: []anthropicwire.Message{
					{Role: "user", Content: anthropicwire.MessageContent{Text: "hi"}},
				},
			}
			out, err := TransformRequest(req)
			if err != nil {
				t.Fatalf("TransformRequest failed: %v", err)
			}

			if !tt.wantFirst {
				if len(out.Messages) != 1 {
					t.Fatalf("Messages = %+v, want exactly the user message", out.Messages)
				}
				return
			}

			if len(out.Messages) != 2 {
				t.Fatalf("Messages = %+v, want system message followed by user message", out.Messages)
			}
			if out.Messages[0].Role != "system" {
				t.Errorf("Messages[0].Role = %q, want %q", out.Messages[0].Role, "system")
			}
			var got string
			if err := json.Unmarshal(out.Messages[0].Content, &got); err != nil {
				t.Fatalf("unmarshal system content: %v", err)
			}
			if got != tt.wantSystem {
				t.Errorf("system content = %q, want %q", got, tt.wantSystem)
			}
		})
	}
}

func TestTransformRequest_ToolsAndToolChoice(t *testing.T) {
	req := anthropicwire.Request{
		Model: "claude-3-5-sonnet",
		Messages: []anthropicwire.Message{
			{Role: "user", Content: anthropicwire.MessageContent{Text: "hi"}},
		},
		Tools: []anthropicwire.ToolDef{
			{Name: "get_weather", Description: "look up weather", InputSchema: json.RawMessage(`{"type":"object"}`)},
		},
		ToolChoice: &anthropicwire.ToolChoice{Type: "tool", Name: "get_weather", DisableParallelToolUse: true},
	}

	out, err := TransformRequest(req)
	if err != nil {
		t.Fatalf("TransformRequest failed: %v", err)
	}

	if len(out.Tools) != 1 || out.Tools[0].Function.Name != "get_weather" {
		t.Fatalf("Tools = %+v", out.Tools)
	}
	choice, ok := out.ToolChoice.(toolChoiceFunc)
	if !ok {
		t.Fatalf("ToolChoice = %#v, want toolChoiceFunc", out.ToolChoice)
	}
	if choice.Function.Name != "get_weather" {
		t.Errorf("ToolChoice function name = %q, want %q", choice.Function.Name, "get_weather")
	}
	if out.ParallelToolCalls == nil || *out.ParallelToolCalls != false {
		t.Errorf("ParallelToolCalls = %v, want false", out.ParallelToolCalls)
	}
}

func TestTransformRequest_MessageConversionErrorWraps(t *testing.T) {
	req := anthropicwire.Request{
		Model: "claude-3-5-sonnet",
		Messages: []anthropicwire.Message{
			{Role: "user", Content: anthropicwire.MessageContent{
				IsBlocks: true,
				Blocks:   []anthropicwire.ContentBlock{{Type: "image"}},
			}},
		},
	}
	_, err := TransformRequest(req)
	if err == nil {
		t.Fatal("expected an error for an image block with no source")
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("err = %v, want it to wrap the underlying conversion error", err)
	}
}

func TestCoerceMetadata(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want map[string]string
	}{
		{
			name: "string values pass through",
			in:   map[string]any{"user_id": "abc123"},
			want: map[string]string{"user_id": "abc123"},
		},
		{
			name: "non-string values are canonically encoded",
			in:   map[string]any{"count": float64(3)},
			want: map[string]string{"count": "3"},
		},
		{
			name: "nil values are dropped",
			in:   map[string]any{"dropped": nil, "kept": "value"},
			want: map[string]string{"kept": "value"},
		},
		{
			name: "empty result becomes nil",
			in:   map[string]any{"dropped": nil},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coerceMetadata(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("coerceMetadata(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("coerceMetadata(%v)[%q] = %q, want %q", tt.in, k, got[k], v)
				}
			}
		})
	}
}

func TestTransformRequest_MetadataOmittedWhenEmpty(t *testing.T) {
	req := anthropicwire.Request{
		Model:    "claude-3-5-sonnet",
		Messages: []anthropicwire.Message{{Role: "user", Content: anthropicwire.MessageContent{Text: "hi"}}},
	}
	out, err := TransformRequest(req)
	if err != nil {
		t.Fatalf("TransformRequest failed: %v", err)
	}
	if out.Metadata != nil {
		t.Errorf("Metadata = %v, want nil", out.Metadata)
	}
}
