// Package anthropicwire defines the JSON wire types for the Anthropic-style
// Messages API this gateway exposes to callers: request bodies, the
// non-streaming response, and every Server-Sent Events payload emitted on
// the streaming path.
//
// These are hand-authored plain structs rather than a bind to
// github.com/anthropics/anthropic-sdk-go. That SDK models the *client* side
// of the Messages API — constructing outbound requests to send to
// api.anthropic.com and decoding the responses it gets back. This package
// plays the opposite role: it is the *server* accepting a Messages-shaped
// request from a caller and producing a Messages-shaped response of its
// own. The SDK's request types build up via functional constructors meant
// to be marshaled once and sent, not decoded from an arbitrary caller's
// JSON body, and its response types are shaped around what the SDK's own
// decoder produces from a real Anthropic response, not around being
// hand-populated and marshaled back out. Plain pointer-optional structs
// with json tags carry both directions equally well and keep this package's
// only dependency on encoding/json.
package anthropicwire
