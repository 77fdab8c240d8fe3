package translator

import (
	"encoding/json"
	"fmt"

	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
	"github.com/ambergate/ambergate/internal/translator/openaiwire"
)

// TransformRequest maps an Anthropic-shaped Request to the OpenAI-shaped
// ChatCompletionRequest sent upstream.
func TransformRequest(req anthropicwire.Request) (*openaiwire.ChatCompletionRequest, error) {
	out := &openaiwire.ChatCompletionRequest{
		Model:  req.Model,
		Stream: req.Stream,
	}

	if req.MaxTokens != nil {
		out.MaxCompletionTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		out.Temperature = req.Temperature
	}
	if req.TopP != nil {
		out.TopP = req.TopP
	}
	if len(req.StopSequences) > 0 {
		out.Stop = req.StopSequences
	}

	if systemMsg, ok := convertSystem(req.System); ok {
		out.Messages = append(out.Messages, systemMsg)
	}

	for _, msg := range req.Messages {
		converted, err := convertMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("convert message with role %q: %w", msg.Role, err)
		}
		out.Messages = append(out.Messages, converted...)
	}

	out.Tools = convertTools(req.Tools)

	if choice, disableParallel := convertToolChoice(req.ToolChoice); choice != nil {
		out.ToolChoice = choice
		if disableParallel {
			f := false
			out.ParallelToolCalls = &f
		}
	}

	if len(req.Metadata) > 0 {
		out.Metadata = coerceMetadata(req.Metadata)
	}

	return out, nil
}

// convertSystem hoists the system field into the first chat message. The
// string variant always emits, even when empty; the block-list variant
// concatenates (no separator) and emits only if the result is non-empty.
func convertSystem(system *anthropicwire.SystemContent) (openaiwire.Message, bool) {
	if system == nil {
		return openaiwire.Message{}, false
	}
	if system.Blocks == nil {
		return openaiwire.Message{Role: "system", Content: rawString(system.Text)}, true
	}
	concatenated := ""
	for _, b := range system.Blocks {
		concatenated += b.Text
	}
	if concatenated == "" {
		return openaiwire.Message{}, false
	}
	return openaiwire.Message{Role: "system", Content: rawString(concatenated)}, true
}

// coerceMetadata copies recognized metadata keys, coercing non-string
// values via canonical JSON encoding and dropping null/undefined values.
func coerceMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			continue
		}
		out[k] = string(encoded)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
