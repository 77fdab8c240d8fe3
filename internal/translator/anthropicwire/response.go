package anthropicwire

// Response is the non-streaming reply to POST /v1/messages.
type Response struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// Usage mirrors the Anthropic usage object, including the fields that are
// always null on this gateway because the upstream never populates their
// OpenAI-side equivalents.
type Usage struct {
	InputTokens              int64  `json:"input_tokens"`
	OutputTokens             int64  `json:"output_tokens"`
	CacheCreation            any    `json:"cache_creation"`
	CacheCreationInputTokens any    `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     any    `json:"cache_read_input_tokens"`
	ServerToolUse            any    `json:"server_tool_use"`
	ServiceTier              string `json:"service_tier"`
}

// NewUsage builds a Usage with the always-null fields set and service_tier
// fixed to "standard".
func NewUsage(inputTokens, outputTokens int64) Usage {
	return Usage{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		ServiceTier:  "standard",
	}
}

// ErrorEnvelope is the downstream error body shape.
type ErrorEnvelope struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEnvelope(kind, message string) ErrorEnvelope {
	return ErrorEnvelope{
		Type: "error",
		Error: ErrorDetail{
			Type:    kind,
			Message: message,
		},
	}
}

// --- Streaming event payloads ---

// MessageStartPayload is the data of a message_start event.
type MessageStartPayload struct {
	Type    string         `json:"type"`
	Message MessageStartee `json:"message"`
}

// MessageStartee is the partial message object carried by message_start:
// content is always empty and usage is zeroed, filled in by later events.
type MessageStartee struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   *string        `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// ContentBlockStartPayload is the data of a content_block_start event.
type ContentBlockStartPayload struct {
	Type         string       `json:"type"`
	Index        int          `json:"index"`
	ContentBlock ContentBlock `json:"content_block"`
}

// ContentBlockDeltaPayload is the data of a content_block_delta event.
type ContentBlockDeltaPayload struct {
	Type  string     `json:"type"`
	Index int        `json:"index"`
	Delta BlockDelta `json:"delta"`
}

// BlockDelta is the discriminated delta union: text_delta, thinking_delta,
// signature_delta, input_json_delta.
type BlockDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	Signature   string `json:"signature,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

// ContentBlockStopPayload is the data of a content_block_stop event.
type ContentBlockStopPayload struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// MessageDeltaPayload is the data of a message_delta event.
type MessageDeltaPayload struct {
	Type  string            `json:"type"`
	Delta MessageDeltaBit   `json:"delta"`
	Usage MessageDeltaUsage `json:"usage"`
}

type MessageDeltaBit struct {
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// MessageDeltaUsage is intentionally narrower than Usage: this event only
// carries input_tokens/output_tokens, with output_tokens carrying the
// (preserved, likely-upstream-bug) sum of input and output token counts.
type MessageDeltaUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// MessageStopPayload is the data of a message_stop event.
type MessageStopPayload struct {
	Type string `json:"type"`
}
