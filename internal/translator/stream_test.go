package translator

import (
	"testing"

	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
	"github.com/ambergate/ambergate/internal/translator/openaiwire"
)

func eventNames(events []Event) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}

func assertEventNames(t *testing.T, got []Event, want []string) {
	t.Helper()
	names := eventNames(got)
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range names {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}
}

func idx(i int) *int { return &i }

func TestTranslate_MessageStartOnFirstRoleDelta(t *testing.T) {
	state := NewStreamState("msg_1")
	chunk := openaiwire.ChatCompletionChunk{
		Model:   "gpt-4o",
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Role: "assistant"}}},
	}

	events := Translate(state, chunk)
	assertEventNames(t, events, []string{"message_start"})
	if !state.MessageStarted {
		t.Error("MessageStarted = false, want true")
	}

	payload := events[0].Data.(anthropicwire.MessageStartPayload)
	if payload.Message.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", payload.Message.Model, "gpt-4o")
	}

	// A second role delta must not restart the message.
	more := Translate(state, chunk)
	assertEventNames(t, more, nil)
}

func TestTranslate_TextDeltaOpensAndAppends(t *testing.T) {
	state := NewStreamState("msg_1")
	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Role: "assistant"}}}})

	events := Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Content: "hel"}}},
	})
	assertEventNames(t, events, []string{"content_block_start", "content_block_delta"})
	if !state.TextBlockStarted {
		t.Error("TextBlockStarted = false, want true")
	}

	events = Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Content: "lo"}}},
	})
	assertEventNames(t, events, []string{"content_block_delta"})
}

func TestTranslate_ThinkingThenTextClosesThinkingBlock(t *testing.T) {
	state := NewStreamState("msg_1")
	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Role: "assistant"}}}})

	events := Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{ReasoningContent: "hmm"}}},
	})
	assertEventNames(t, events, []string{"content_block_start", "content_block_delta"})
	if !state.ThinkingBlockStarted {
		t.Error("ThinkingBlockStarted = false, want true")
	}

	events = Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Content: "answer"}}},
	})
	// stopThinking (signature_delta + content_block_stop) then open + delta for text.
	assertEventNames(t, events, []string{
		"content_block_delta", "content_block_stop",
		"content_block_start", "content_block_delta",
	})
	if state.ThinkingBlockStarted {
		t.Error("ThinkingBlockStarted = true, want false after transitioning to text")
	}
	if !state.TextBlockStarted {
		t.Error("TextBlockStarted = false, want true")
	}
}

func TestTranslate_ToolCallOpensAndStreamsArguments(t *testing.T) {
	state := NewStreamState("msg_1")
	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Role: "assistant"}}}})

	events := Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{
			ToolCalls: []openaiwire.ToolCall{{
				Index:    idx(0),
				ID:       "call_1",
				Function: openaiwire.ToolCallFunction{Name: "get_weather"},
			}},
		}}},
	})
	assertEventNames(t, events, []string{"content_block_start"})
	if len(state.ToolBlocks) != 1 || state.ToolBlocks[0].ID != "call_1" {
		t.Errorf("ToolBlocks = %+v", state.ToolBlocks)
	}

	events = Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{
			ToolCalls: []openaiwire.ToolCall{{
				Index:    idx(0),
				Function: openaiwire.ToolCallFunction{Arguments: `{"city":`},
			}},
		}}},
	})
	assertEventNames(t, events, []string{"content_block_delta"})
	delta := events[0].Data.(anthropicwire.ContentBlockDeltaPayload)
	if delta.Delta.PartialJSON != `{"city":` {
		t.Errorf("PartialJSON = %q", delta.Delta.PartialJSON)
	}
}

func TestTranslate_TextThenToolCallClosesTextBlock(t *testing.T) {
	state := NewStreamState("msg_1")
	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Role: "assistant"}}}})
	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Content: "hi"}}}})

	events := Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{
			ToolCalls: []openaiwire.ToolCall{{Index: idx(0), ID: "call_1", Function: openaiwire.ToolCallFunction{Name: "noop"}}},
		}}},
	})
	assertEventNames(t, events, []string{"content_block_stop", "content_block_start"})
	if state.TextBlockStarted {
		t.Error("TextBlockStarted = true, want false")
	}
}

func TestTranslate_MultipleConcurrentToolBlocksCloseInIndexOrder(t *testing.T) {
	state := NewStreamState("msg_1")
	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Role: "assistant"}}}})

	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{
		ToolCalls: []openaiwire.ToolCall{{Index: idx(1), ID: "call_b", Function: openaiwire.ToolCallFunction{Name: "b"}}},
	}}}})
	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{
		ToolCalls: []openaiwire.ToolCall{{Index: idx(0), ID: "call_a", Function: openaiwire.ToolCallFunction{Name: "a"}}},
	}}}})

	if len(state.ToolBlocks) != 2 {
		t.Fatalf("ToolBlocks = %+v, want two open blocks", state.ToolBlocks)
	}

	events := state.closeAllToolBlocks()
	assertEventNames(t, events, []string{"content_block_stop", "content_block_stop"})
	first := events[0].Data.(anthropicwire.ContentBlockStopPayload)
	second := events[1].Data.(anthropicwire.ContentBlockStopPayload)
	if first.Index != 0 || second.Index != 1 {
		t.Errorf("close order = [%d %d], want [0 1]", first.Index, second.Index)
	}
	if state.ContentBlockIndex != 2 {
		t.Errorf("ContentBlockIndex = %d, want 2", state.ContentBlockIndex)
	}
}

func TestTranslate_FinishReasonEmitsMessageDeltaWithSummedUsage(t *testing.T) {
	state := NewStreamState("msg_1")
	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Role: "assistant"}}}})
	Translate(state, openaiwire.ChatCompletionChunk{Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Content: "hi"}}}})

	events := Translate(state, openaiwire.ChatCompletionChunk{
		Usage:   &openaiwire.Usage{PromptTokens: 10, CompletionTokens: 5},
		Choices: []openaiwire.ChunkChoice{{FinishReason: "stop"}},
	})
	assertEventNames(t, events, []string{"content_block_stop", "message_delta"})

	delta := events[1].Data.(anthropicwire.MessageDeltaPayload)
	if delta.Delta.StopReason != "end_turn" {
		t.Errorf("StopReason = %q, want %q", delta.Delta.StopReason, "end_turn")
	}
	// Deliberately preserved upstream quirk: output_tokens sums both counts.
	if delta.Usage.OutputTokens != 15 {
		t.Errorf("OutputTokens = %d, want 15 (input+output)", delta.Usage.OutputTokens)
	}
	if delta.Usage.InputTokens != 0 {
		t.Errorf("InputTokens = %d, want 0", delta.Usage.InputTokens)
	}
}

func TestTranslate_UsageOnlyUpdatesOnNonZero(t *testing.T) {
	state := NewStreamState("msg_1")
	state.InputTokens = 7
	state.OutputTokens = 3

	Translate(state, openaiwire.ChatCompletionChunk{
		Usage: &openaiwire.Usage{PromptTokens: 0, CompletionTokens: 0},
	})
	if state.InputTokens != 7 || state.OutputTokens != 3 {
		t.Errorf("usage was overwritten by a zero-valued usage field: got {%d %d}", state.InputTokens, state.OutputTokens)
	}
}

func TestTranslate_NoChoicesReturnsNoEvents(t *testing.T) {
	state := NewStreamState("msg_1")
	events := Translate(state, openaiwire.ChatCompletionChunk{})
	if events != nil {
		t.Errorf("events = %v, want nil", events)
	}
}

func TestTranslate_ContentBeforeRoleEmitsNoEvents(t *testing.T) {
	state := NewStreamState("msg_1")

	events := Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{Content: "hi"}}},
	})
	if events != nil {
		t.Errorf("events = %v, want nil for a text delta before any role delta", events)
	}
	if state.MessageStarted || state.TextBlockStarted {
		t.Error("state was mutated by a delta received before message_start")
	}

	events = Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{ReasoningContent: "hmm"}}},
	})
	if events != nil {
		t.Errorf("events = %v, want nil for a thinking delta before any role delta", events)
	}

	events = Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{Delta: openaiwire.Delta{
			ToolCalls: []openaiwire.ToolCall{{Index: idx(0), ID: "call_1", Function: openaiwire.ToolCallFunction{Name: "noop"}}},
		}}},
	})
	if events != nil {
		t.Errorf("events = %v, want nil for a tool_calls delta before any role delta", events)
	}

	events = Translate(state, openaiwire.ChatCompletionChunk{
		Choices: []openaiwire.ChunkChoice{{FinishReason: "stop"}},
	})
	if events != nil {
		t.Errorf("events = %v, want nil for a finish_reason before any role delta", events)
	}
}

func TestDone_EmitsMessageStop(t *testing.T) {
	state := NewStreamState("msg_1")
	event := Done(state)
	if event.Name != "message_stop" {
		t.Errorf("Name = %q, want %q", event.Name, "message_stop")
	}
}

func TestCloseOpenNonToolBlock_NoneOpenReturnsNil(t *testing.T) {
	state := NewStreamState("msg_1")
	if events := state.closeOpenNonToolBlock(); events != nil {
		t.Errorf("events = %v, want nil", events)
	}
}
