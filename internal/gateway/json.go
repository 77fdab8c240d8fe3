package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ambergate/ambergate/internal/translator"
	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeError writes the downstream error envelope, mapping a
// *translator.Error to its documented HTTP status and error type.
// Non-translator errors fall back to a generic api_error.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	terr, ok := err.(*translator.Error)
	if !ok {
		slog.ErrorContext(ctx, "unmapped error reached the gateway boundary", "error", err)
		writeJSON(ctx, w, anthropicwire.NewErrorEnvelope("api_error", "internal error"), http.StatusInternalServerError)
		return
	}

	status, kind, message := statusFor(terr)
	writeJSON(ctx, w, anthropicwire.NewErrorEnvelope(kind, message), status)
}

// statusFor maps a translator error kind to its downstream HTTP status
// and Anthropic-style error type.
func statusFor(err *translator.Error) (status int, kind, message string) {
	switch err.Kind {
	case translator.KindPermissionDenied:
		return http.StatusForbidden, "permission_error", err.Message
	case translator.KindModelRestricted:
		return http.StatusForbidden, "invalid_request_error", err.Message
	case translator.KindNoAccount:
		return http.StatusServiceUnavailable, "overloaded_error", err.Message
	case translator.KindMisconfiguredAccount:
		return http.StatusServiceUnavailable, "configuration_error", err.Message
	case translator.KindUpstreamStatus:
		return upstreamStatus(err)
	case translator.KindParseError:
		return http.StatusBadGateway, "api_error", err.Message
	case translator.KindTransportError:
		return http.StatusInternalServerError, "api_error", err.Message
	case translator.KindInvalidUpstreamResponse:
		return http.StatusBadGateway, "api_error", err.Message
	default:
		return http.StatusInternalServerError, "api_error", err.Message
	}
}

// upstreamErrorBody mirrors the {"error": {type, message}} shape most
// OpenAI-compatible upstreams return on non-2xx responses.
type upstreamErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// upstreamStatus passes through the upstream status and, where parseable,
// its error type and message.
func upstreamStatus(err *translator.Error) (status int, kind, message string) {
	var body upstreamErrorBody
	_ = json.Unmarshal(err.Body, &body)

	kind = body.Error.Type
	if kind == "" {
		kind = "api_error"
	}
	message = body.Error.Message
	if message == "" {
		message = err.Message
	}
	return err.Status, kind, message
}
