// Package openaiwire defines the JSON wire types for the OpenAI-style
// chat-completions API this gateway forwards to. Like anthropicwire, these
// are hand-authored plain structs rather than a binding to
// github.com/sashabaranov/go-openai: the streaming delta this gateway must
// decode carries a non-standard reasoning_content field that no published
// OpenAI client models, and the SSE reframing in
// internal/gateway needs raw access to each data line before it is even
// known to be well-formed JSON. A hand-rolled, pointer-optional struct set
// keeps that decoding path in encoding/json and lets the streaming chunk
// type carry exactly the fields the translator's state machine inspects.
package openaiwire
