package translator

import (
	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
	"github.com/ambergate/ambergate/internal/translator/openaiwire"
)

// convertTools maps Request.Tools to OpenAI's function-tool array.
func convertTools(tools []anthropicwire.ToolDef) []openaiwire.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openaiwire.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openaiwire.Tool{
			Type: "function",
			Function: openaiwire.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// toolChoiceFunc is the {type:"function", function:{name}} shape emitted
// for the tool{name} variant.
type toolChoiceFunc struct {
	Type     string             `json:"type"`
	Function toolChoiceFuncName `json:"function"`
}

type toolChoiceFuncName struct {
	Name string `json:"name"`
}

// convertToolChoice maps Request.ToolChoice to OpenAI's tool_choice union
// and reports whether parallel_tool_calls:false must be emitted.
func convertToolChoice(tc *anthropicwire.ToolChoice) (value any, disableParallel bool) {
	if tc == nil {
		return nil, false
	}
	switch tc.Type {
	case "auto":
		value = "auto"
	case "any":
		value = "required"
	case "tool":
		value = toolChoiceFunc{Type: "function", Function: toolChoiceFuncName{Name: tc.Name}}
	case "none":
		value = "none"
	}
	return value, tc.DisableParallelToolUse
}
