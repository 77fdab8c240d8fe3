package translator

import (
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
	"github.com/ambergate/ambergate/internal/translator/openaiwire"
)

// Event is one downstream SSE event: an event name and the JSON-encodable
// payload for its data line.
type Event struct {
	Name string
	Data any
}

// toolBlock is the {id, name} pair StreamState remembers per open tool
// index.
type toolBlock struct {
	ID   string
	Name string
}

// StreamState is the per-session state machine driving the streaming
// translation. It is owned by exactly one in-flight request and must not
// be shared across goroutines.
type StreamState struct {
	SessionID string
	Model     string

	MessageStarted       bool
	TextBlockStarted     bool
	ThinkingBlockStarted bool
	ToolBlocks           map[int]toolBlock
	ContentBlockIndex    int
	InputTokens          int64
	OutputTokens         int64
}

// NewStreamState creates the state for a fresh session. The dispatch
// pipeline creates it before reading any upstream event; Translate emits
// message_start on the first delta carrying a role.
func NewStreamState(sessionID string) *StreamState {
	return &StreamState{
		SessionID:  sessionID,
		ToolBlocks: make(map[int]toolBlock),
	}
}

// Translate consumes one decoded upstream chunk and returns the downstream
// events it produces, mutating state in place.
func Translate(state *StreamState, chunk openaiwire.ChatCompletionChunk) []Event {
	if chunk.Usage != nil {
		if chunk.Usage.PromptTokens != 0 {
			state.InputTokens = chunk.Usage.PromptTokens
		}
		if chunk.Usage.CompletionTokens != 0 {
			state.OutputTokens = chunk.Usage.CompletionTokens
		}
	}

	if len(chunk.Choices) == 0 {
		return nil
	}
	choice := chunk.Choices[0]
	delta := choice.Delta

	var events []Event

	if delta.Role != "" && !state.MessageStarted {
		state.MessageStarted = true
		state.Model = chunk.Model
		events = append(events, Event{
			Name: "message_start",
			Data: anthropicwire.MessageStartPayload{
				Type: "message_start",
				Message: anthropicwire.MessageStartee{
					ID:      state.SessionID,
					Type:    "message",
					Role:    "assistant",
					Content: []anthropicwire.ContentBlock{},
					Model:   chunk.Model,
					Usage:   anthropicwire.NewUsage(0, 0),
				},
			},
		})
	}

	// A session that hasn't seen a role delta yet has emitted no
	// message_start, so it must emit nothing else either: message_start is
	// always the first event of a session.
	if !state.MessageStarted {
		return events
	}

	hasText := delta.Content != ""
	hasThinking := delta.ReasoningContent != ""
	hasToolCalls := len(delta.ToolCalls) > 0

	// The upstream SSE protocol does not formally forbid a single delta
	// carrying both text and thinking. Text takes precedence; log so this
	// is visible if it is ever exercised in practice.
	if hasText && hasThinking {
		slog.Warn("upstream delta carries both text and reasoning_content; text takes precedence", "session_id", state.SessionID)
	}

	switch {
	case hasText:
		events = append(events, state.openText()...)
		events = append(events, Event{
			Name: "content_block_delta",
			Data: anthropicwire.ContentBlockDeltaPayload{
				Type:  "content_block_delta",
				Index: state.ContentBlockIndex,
				Delta: anthropicwire.BlockDelta{Type: "text_delta", Text: delta.Content},
			},
		})
	case hasThinking:
		events = append(events, state.openThinking()...)
		events = append(events, Event{
			Name: "content_block_delta",
			Data: anthropicwire.ContentBlockDeltaPayload{
				Type:  "content_block_delta",
				Index: state.ContentBlockIndex,
				Delta: anthropicwire.BlockDelta{Type: "thinking_delta", Thinking: delta.ReasoningContent},
			},
		})
	case hasToolCalls:
		events = append(events, state.applyToolCalls(delta.ToolCalls)...)
	}

	if choice.FinishReason != "" {
		events = append(events, state.closeForFinish(choice.FinishReason)...)
	}

	return events
}

// Done handles the `[DONE]` sentinel: emit message_stop and let the caller
// discard the session.
func Done(state *StreamState) Event {
	return Event{Name: "message_stop", Data: anthropicwire.MessageStopPayload{Type: "message_stop"}}
}

// openText flushes and closes a thinking block if one is open, closes any
// open tool blocks, then opens a text block if none is open yet.
func (s *StreamState) openText() []Event {
	var events []Event

	if s.ThinkingBlockStarted {
		events = append(events, s.stopThinking()...)
	}

	if len(s.ToolBlocks) > 0 {
		events = append(events, s.closeAllToolBlocks()...)
	}

	if !s.TextBlockStarted {
		events = append(events, Event{
			Name: "content_block_start",
			Data: anthropicwire.ContentBlockStartPayload{
				Type:  "content_block_start",
				Index: s.ContentBlockIndex,
				ContentBlock: anthropicwire.ContentBlock{
					Type:      "text",
					Text:      "",
					Citations: nil,
				},
			},
		})
		s.TextBlockStarted = true
	}

	return events
}

// openThinking is the symmetric counterpart of openText for
// reasoning_content deltas.
func (s *StreamState) openThinking() []Event {
	var events []Event

	if s.TextBlockStarted {
		events = append(events, Event{
			Name: "content_block_stop",
			Data: anthropicwire.ContentBlockStopPayload{Type: "content_block_stop", Index: s.ContentBlockIndex},
		})
		s.TextBlockStarted = false
	}

	if len(s.ToolBlocks) > 0 {
		events = append(events, s.closeAllToolBlocks()...)
	}

	if !s.ThinkingBlockStarted {
		events = append(events, Event{
			Name: "content_block_start",
			Data: anthropicwire.ContentBlockStartPayload{
				Type:  "content_block_start",
				Index: s.ContentBlockIndex,
				ContentBlock: anthropicwire.ContentBlock{
					Type:      "thinking",
					Thinking:  "",
					Signature: "",
				},
			},
		})
		s.ThinkingBlockStarted = true
	}

	return events
}

// stopThinking flushes the empty signature_delta and closes the currently
// open thinking block: a thinking flush always includes its
// signature_delta.
func (s *StreamState) stopThinking() []Event {
	events := []Event{
		{
			Name: "content_block_delta",
			Data: anthropicwire.ContentBlockDeltaPayload{
				Type:  "content_block_delta",
				Index: s.ContentBlockIndex,
				Delta: anthropicwire.BlockDelta{Type: "signature_delta", Signature: ""},
			},
		},
		{
			Name: "content_block_stop",
			Data: anthropicwire.ContentBlockStopPayload{Type: "content_block_stop", Index: s.ContentBlockIndex},
		},
	}
	s.ThinkingBlockStarted = false
	return events
}

// closeAllToolBlocks closes every open tool block (in ascending index
// order, for deterministic output) and advances ContentBlockIndex past the
// highest tool index used.
func (s *StreamState) closeAllToolBlocks() []Event {
	indices := make([]int, 0, len(s.ToolBlocks))
	for idx := range s.ToolBlocks {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	events := make([]Event, 0, len(indices))
	maxIdx := -1
	for _, idx := range indices {
		events = append(events, Event{
			Name: "content_block_stop",
			Data: anthropicwire.ContentBlockStopPayload{Type: "content_block_stop", Index: idx},
		})
		if idx > maxIdx {
			maxIdx = idx
		}
		delete(s.ToolBlocks, idx)
	}
	if maxIdx >= 0 {
		s.ContentBlockIndex = maxIdx + 1
	}
	return events
}

// closeOpenNonToolBlock closes whichever of text/thinking is currently
// open (there is at most one, per the StreamState invariant), used before
// tool_calls deltas open and before the terminal finish_reason chunk.
func (s *StreamState) closeOpenNonToolBlock() []Event {
	switch {
	case s.ThinkingBlockStarted:
		return s.stopThinking()
	case s.TextBlockStarted:
		events := []Event{{
			Name: "content_block_stop",
			Data: anthropicwire.ContentBlockStopPayload{Type: "content_block_stop", Index: s.ContentBlockIndex},
		}}
		s.TextBlockStarted = false
		return events
	default:
		return nil
	}
}

// applyToolCalls implements the tool_calls transition.
func (s *StreamState) applyToolCalls(calls []openaiwire.ToolCall) []Event {
	events := s.closeOpenNonToolBlock()

	for _, call := range calls {
		idx := 0
		if call.Index != nil {
			idx = *call.Index
		}

		if call.ID != "" {
			if _, open := s.ToolBlocks[idx]; open {
				events = append(events, Event{
					Name: "content_block_stop",
					Data: anthropicwire.ContentBlockStopPayload{Type: "content_block_stop", Index: idx},
				})
				delete(s.ToolBlocks, idx)
			}
			s.ToolBlocks[idx] = toolBlock{ID: call.ID, Name: call.Function.Name}
			events = append(events, Event{
				Name: "content_block_start",
				Data: anthropicwire.ContentBlockStartPayload{
					Type:  "content_block_start",
					Index: idx,
					ContentBlock: anthropicwire.ContentBlock{
						Type:  "tool_use",
						ID:    call.ID,
						Name:  call.Function.Name,
						Input: json.RawMessage("{}"),
					},
				},
			})
		}

		if call.Function.Arguments != "" {
			events = append(events, Event{
				Name: "content_block_delta",
				Data: anthropicwire.ContentBlockDeltaPayload{
					Type:  "content_block_delta",
					Index: idx,
					Delta: anthropicwire.BlockDelta{Type: "input_json_delta", PartialJSON: call.Function.Arguments},
				},
			})
		}
	}

	return events
}

// closeForFinish closes the currently open non-tool block and every open
// tool block, then emits message_delta. message_stop is not emitted here —
// only on the `[DONE]` sentinel (see Done).
func (s *StreamState) closeForFinish(finishReason string) []Event {
	events := s.closeOpenNonToolBlock()
	events = append(events, s.closeAllToolBlocks()...)

	// output_tokens here is deliberately inputTokens+outputTokens,
	// mirroring upstream behavior this gateway preserves rather than
	// "fixes".
	events = append(events, Event{
		Name: "message_delta",
		Data: anthropicwire.MessageDeltaPayload{
			Type: "message_delta",
			Delta: anthropicwire.MessageDeltaBit{
				StopReason:   mapFinishReason(finishReason),
				StopSequence: nil,
			},
			Usage: anthropicwire.MessageDeltaUsage{
				InputTokens:  0,
				OutputTokens: s.InputTokens + s.OutputTokens,
			},
		},
	})

	return events
}
