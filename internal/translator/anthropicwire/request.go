package anthropicwire

import (
	"encoding/json"
	"fmt"
)

// Request is the decoded body of a POST /v1/messages call.
//
// Fields use pointers (or the zero-vs-absent-safe wrapper types below) so
// the translator can tell "the caller didn't set temperature" apart from
// "the caller set temperature to 0".
type Request struct {
	Model         string         `json:"model" validate:"required"`
	Messages      []Message      `json:"messages" validate:"required,min=1,dive"`
	System        *SystemContent `json:"system,omitempty"`
	MaxTokens     *int64         `json:"max_tokens,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=1"`
	TopP          *float64       `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	StopSequences []string       `json:"stop_sequences,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	Tools         []ToolDef      `json:"tools,omitempty"`
	ToolChoice    *ToolChoice    `json:"tool_choice,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Message is one turn of conversation. Content is either a bare string or
// an ordered list of ContentBlock values.
type Message struct {
	Role    string         `json:"role" validate:"required,oneof=user assistant"`
	Content MessageContent `json:"content"`
}

// SystemContent models the union the "system" field allows: a plain
// string, or an ordered list of text blocks concatenated by the request
// transformer.
type SystemContent struct {
	Text   string
	Blocks []ContentBlock
}

func (s *SystemContent) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Text = str
		s.Blocks = nil
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("system: expected string or content block array: %w", err)
	}
	s.Blocks = blocks
	s.Text = ""
	return nil
}

func (s SystemContent) MarshalJSON() ([]byte, error) {
	if s.Blocks != nil {
		return json.Marshal(s.Blocks)
	}
	return json.Marshal(s.Text)
}

// MessageContent models Message.content: either a bare string or an
// ordered list of ContentBlock values.
type MessageContent struct {
	Text     string
	Blocks   []ContentBlock
	IsBlocks bool
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		c.Text = str
		c.IsBlocks = false
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("message content: expected string or content block array: %w", err)
	}
	c.Blocks = blocks
	c.IsBlocks = true
	return nil
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.IsBlocks {
		return json.Marshal(c.Blocks)
	}
	return json.Marshal(c.Text)
}

// ContentBlock is a discriminated union over the block variants: text,
// image, document, tool_use, tool_result, thinking. Only the fields
// relevant to Type are populated; the rest stay zero.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`
	// Citations is always nil at every call site in this gateway, but the
	// tag deliberately lacks omitempty: downstream clients expect an
	// explicit `"citations":null`, not an absent key.
	Citations any `json:"citations"`

	// image / document
	Source *Source `json:"source,omitempty"`
	Title  string  `json:"title,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string             `json:"tool_use_id,omitempty"`
	Content   *ToolResultContent `json:"content,omitempty"`
	IsError   bool               `json:"is_error,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Source is the "source" object shared by image and document blocks:
// base64{media_type,data}, url{url}, text{media_type,data}, or the rarer
// content{content} variant used by some document sources.
type Source struct {
	Type      string          `json:"type"`
	MediaType string          `json:"media_type,omitempty"`
	Data      string          `json:"data,omitempty"`
	URL       string          `json:"url,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// ToolResultContent models tool_result.content: a bare string or a list of
// text blocks.
type ToolResultContent struct {
	Text     string
	Blocks   []ContentBlock
	IsBlocks bool
}

func (t *ToolResultContent) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		t.Text = str
		t.IsBlocks = false
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("tool_result content: expected string or content block array: %w", err)
	}
	t.Blocks = blocks
	t.IsBlocks = true
	return nil
}

func (t ToolResultContent) MarshalJSON() ([]byte, error) {
	if t.IsBlocks {
		return json.Marshal(t.Blocks)
	}
	return json.Marshal(t.Text)
}

// String renders tool_result content as a flat string, concatenating text
// blocks in order when the content was a block list.
func (t ToolResultContent) String() string {
	if !t.IsBlocks {
		return t.Text
	}
	out := ""
	for _, b := range t.Blocks {
		if b.Type == "text" {
			out += b.Text
		}
	}
	return out
}

// ToolDef is one entry of Request.Tools.
type ToolDef struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolChoice is the discriminated union {auto, any, tool{name}, none}, each
// with an optional disable_parallel_tool_use flag.
type ToolChoice struct {
	Type                   string `json:"type"`
	Name                   string `json:"name,omitempty"`
	DisableParallelToolUse bool   `json:"disable_parallel_tool_use,omitempty"`
}
