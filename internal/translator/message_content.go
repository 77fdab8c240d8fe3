package translator

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
	"github.com/ambergate/ambergate/internal/translator/openaiwire"
)

// convertMessage implements the message-content conversion rules: one
// Anthropic message yields zero or more OpenAI messages.
func convertMessage(msg anthropicwire.Message) ([]openaiwire.Message, error) {
	if !msg.Content.IsBlocks {
		return []openaiwire.Message{{
			Role:    msg.Role,
			Content: rawString(msg.Content.Text),
		}}, nil
	}

	var (
		textParts    []string
		contentParts []openaiwire.ContentPart
		toolCalls    []openaiwire.ToolCall
		toolResults  []anthropicwire.ContentBlock
	)

	for _, block := range msg.Content.Blocks {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
			contentParts = append(contentParts, openaiwire.ContentPart{Type: "text", Text: block.Text})
		case "image":
			part, err := convertImageBlock(block)
			if err != nil {
				return nil, err
			}
			contentParts = append(contentParts, part)
		case "document":
			part, err := convertDocumentBlock(block)
			if err != nil {
				return nil, err
			}
			contentParts = append(contentParts, part)
		case "tool_use":
			toolCalls = append(toolCalls, convertToolUseBlock(block))
		case "tool_result":
			toolResults = append(toolResults, block)
		case "thinking":
			slog.Debug("dropping thinking block from outbound request: no standard upstream encoding", "signature", block.Signature)
		default:
			slog.Debug("dropping unrecognized content block type", "type", block.Type)
		}
	}

	if len(toolResults) > 0 {
		out := make([]openaiwire.Message, 0, len(toolResults))
		for _, tr := range toolResults {
			content := ""
			if tr.Content != nil {
				content = tr.Content.String()
			}
			out = append(out, openaiwire.Message{
				Role:       "tool",
				ToolCallID: tr.ToolUseID,
				Content:    rawString(content),
			})
		}
		return out, nil
	}

	switch msg.Role {
	case "assistant":
		out := openaiwire.Message{Role: "assistant"}
		if len(textParts) > 0 {
			out.Content = rawString(strings.Join(textParts, ""))
		} else {
			out.Content = json.RawMessage("null")
		}
		if len(toolCalls) > 0 {
			out.ToolCalls = toolCalls
		}
		return []openaiwire.Message{out}, nil
	case "user":
		if len(contentParts) == 0 {
			return nil, nil
		}
		raw, err := json.Marshal(contentParts)
		if err != nil {
			return nil, fmt.Errorf("encode user content parts: %w", err)
		}
		return []openaiwire.Message{{Role: "user", Content: raw}}, nil
	default:
		return nil, nil
	}
}

func convertToolUseBlock(block anthropicwire.ContentBlock) openaiwire.ToolCall {
	args := block.Input
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	return openaiwire.ToolCall{
		ID:   block.ID,
		Type: "function",
		Function: openaiwire.ToolCallFunction{
			Name:      block.Name,
			Arguments: string(args),
		},
	}
}

func convertImageBlock(block anthropicwire.ContentBlock) (openaiwire.ContentPart, error) {
	if block.Source == nil {
		return openaiwire.ContentPart{}, fmt.Errorf("image block missing source")
	}
	switch block.Source.Type {
	case "base64":
		url := fmt.Sprintf("data:%s;base64,%s", block.Source.MediaType, block.Source.Data)
		return openaiwire.ContentPart{Type: "image_url", ImageURL: &openaiwire.ImageURL{URL: url}}, nil
	case "url":
		return openaiwire.ContentPart{Type: "image_url", ImageURL: &openaiwire.ImageURL{URL: block.Source.URL}}, nil
	default:
		return openaiwire.ContentPart{}, fmt.Errorf("unsupported image source type %q", block.Source.Type)
	}
}

func convertDocumentBlock(block anthropicwire.ContentBlock) (openaiwire.ContentPart, error) {
	if block.Source == nil {
		return openaiwire.ContentPart{}, fmt.Errorf("document block missing source")
	}

	var fileData string
	switch block.Source.Type {
	case "base64":
		fileData = block.Source.Data
	case "text":
		fileData = base64.StdEncoding.EncodeToString([]byte(block.Source.Data))
	case "content":
		// The same string-or-block-list union tool_result.content allows;
		// reuse its extraction so a list of text blocks is concatenated
		// rather than base64-encoding the raw JSON (quotes and brackets
		// included).
		var content anthropicwire.ToolResultContent
		if err := json.Unmarshal(block.Source.Content, &content); err != nil {
			return openaiwire.ContentPart{}, fmt.Errorf("decode document content source: %w", err)
		}
		fileData = base64.StdEncoding.EncodeToString([]byte(content.String()))
	default:
		return openaiwire.ContentPart{}, fmt.Errorf("unsupported document source type %q", block.Source.Type)
	}

	return openaiwire.ContentPart{
		Type: "file",
		File: &openaiwire.File{
			FileData: fileData,
			Filename: block.Title,
		},
	}, nil
}

// rawString encodes a Go string as a JSON string, used for Message.Content
// which is typed as json.RawMessage to represent both the string and
// content-part-array shapes.
func rawString(s string) json.RawMessage {
	raw, err := json.Marshal(s)
	if err != nil {
		// json.Marshal of a string never fails.
		return json.RawMessage(`""`)
	}
	return raw
}
