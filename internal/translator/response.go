package translator

import (
	"encoding/json"

	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
	"github.com/ambergate/ambergate/internal/translator/openaiwire"
)

// TransformResponse maps a non-streamed OpenAI ChatCompletionResponse to
// an Anthropic-shaped Response.
func TransformResponse(resp openaiwire.ChatCompletionResponse) (*anthropicwire.Response, error) {
	if len(resp.Choices) == 0 {
		return nil, NewInvalidUpstreamResponse("upstream response has no choices")
	}
	choice := resp.Choices[0]

	id := resp.ID
	if id == "" {
		id = NewMessageID()
	}

	var content []anthropicwire.ContentBlock

	if choice.Message.Content != nil {
		content = append(content, anthropicwire.ContentBlock{
			Type: "text",
			Text: *choice.Message.Content,
		})
	}

	if choice.Message.ReasoningContent != nil {
		content = append(content, anthropicwire.ContentBlock{
			Type:     "thinking",
			Thinking: *choice.Message.ReasoningContent,
		})
	}

	for _, call := range choice.Message.ToolCalls {
		if call.Type != "" && call.Type != "function" {
			continue
		}
		toolID := call.ID
		if toolID == "" {
			toolID = NewToolUseID()
		}
		content = append(content, anthropicwire.ContentBlock{
			Type:  "tool_use",
			ID:    toolID,
			Name:  call.Function.Name,
			Input: parseToolInput(call.Function.Arguments),
		})
	}

	usage := anthropicwire.NewUsage(0, 0)
	if resp.Usage != nil {
		usage = anthropicwire.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	return &anthropicwire.Response{
		ID:           id,
		Type:         "message",
		Role:         "assistant",
		Content:      content,
		Model:        resp.Model,
		StopReason:   mapFinishReason(choice.FinishReason),
		StopSequence: nil,
		Usage:        usage,
	}, nil
}

// parseToolInput parses a tool call's raw arguments string as JSON,
// falling back to the raw string when parsing fails.
func parseToolInput(arguments string) json.RawMessage {
	if arguments == "" {
		return json.RawMessage("{}")
	}
	var probe json.RawMessage
	if err := json.Unmarshal([]byte(arguments), &probe); err == nil {
		return probe
	}
	raw, err := json.Marshal(arguments)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return raw
}

// mapFinishReason maps an OpenAI finish_reason to an Anthropic stop_reason.
func mapFinishReason(finishReason string) string {
	switch finishReason {
	case "stop":
		return "end_turn"
	case "length":
		return "max_tokens"
	case "tool_calls":
		return "tool_use"
	case "function_call":
		return "tool_use"
	case "content_filter":
		return "refusal"
	default:
		return "end_turn"
	}
}
