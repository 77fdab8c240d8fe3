// Package translator implements the protocol translation core: converting
// an Anthropic-shaped request into an OpenAI-shaped one, converting an
// OpenAI-shaped response (buffered or streamed) back into Anthropic-shaped
// output, and the per-session StreamState machine that drives the
// streaming half of that conversion.
package translator

import "fmt"

// Kind enumerates a typed error sum type, replacing thrown-exception
// control flow with values the dispatch layer switches on to build the
// downstream error envelope.
type Kind int

const (
	KindNone Kind = iota
	KindPermissionDenied
	KindModelRestricted
	KindNoAccount
	KindMisconfiguredAccount
	KindUpstreamStatus
	KindParseError
	KindTransportError
	KindInvalidUpstreamResponse
)

// Error is the typed error value dispatch and translator code returns
// instead of ad-hoc errors, so callers can switch on Kind without string
// matching.
type Error struct {
	Kind    Kind
	Status  int    // upstream HTTP status, only set for KindUpstreamStatus
	Message string
	Body    []byte // raw upstream error body, only set for KindUpstreamStatus
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewPermissionDenied(message string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

func NewModelRestricted(message string) *Error {
	return &Error{Kind: KindModelRestricted, Message: message}
}

func NewNoAccount(message string, err error) *Error {
	return &Error{Kind: KindNoAccount, Message: message, Err: err}
}

func NewMisconfiguredAccount(message string) *Error {
	return &Error{Kind: KindMisconfiguredAccount, Message: message}
}

func NewUpstreamStatus(status int, body []byte, message string) *Error {
	return &Error{Kind: KindUpstreamStatus, Status: status, Body: body, Message: message}
}

func NewParseError(message string, err error) *Error {
	return &Error{Kind: KindParseError, Message: message, Err: err}
}

func NewTransportError(message string, err error) *Error {
	return &Error{Kind: KindTransportError, Message: message, Err: err}
}

func NewInvalidUpstreamResponse(message string) *Error {
	return &Error{Kind: KindInvalidUpstreamResponse, Message: message}
}
