package translator

import "github.com/google/uuid"

// NewMessageID generates a fallback Anthropic-style message ID
// (msg_<uuid>), used when the upstream response carries none.
func NewMessageID() string {
	return "msg_" + uuid.NewString()
}

// NewToolUseID generates a fallback Anthropic-style tool_use ID
// (toolu_<uuid>), used when an upstream tool call carries none.
func NewToolUseID() string {
	return "toolu_" + uuid.NewString()
}
