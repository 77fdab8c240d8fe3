package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ambergate/ambergate/internal/dispatch"
	"github.com/ambergate/ambergate/internal/translator"
	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
)

// MessagesHandler serves POST /v1/messages: the Anthropic-compatible entry
// point, dispatched non-streaming or streaming depending on the request
// body's stream flag.
type MessagesHandler struct {
	Pipeline  *dispatch.Pipeline
	validator *validator.Validate
}

// NewMessagesHandler builds a MessagesHandler around pipeline.
func NewMessagesHandler(pipeline *dispatch.Pipeline) *MessagesHandler {
	return &MessagesHandler{Pipeline: pipeline, validator: validator.New()}
}

var _ http.Handler = (*MessagesHandler)(nil)

func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, ok := dispatch.APIKeyFromContext(ctx)
	if !ok {
		writeJSON(ctx, w, anthropicwire.NewErrorEnvelope("authentication_error", "missing API key"), http.StatusUnauthorized)
		return
	}

	var req anthropicwire.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(ctx, w, anthropicwire.NewErrorEnvelope("invalid_request_error", http.StatusText(http.StatusRequestEntityTooLarge)), http.StatusRequestEntityTooLarge)
			return
		}
		writeJSON(ctx, w, anthropicwire.NewErrorEnvelope("invalid_request_error", "request body is not valid JSON"), http.StatusBadRequest)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeJSON(ctx, w, anthropicwire.NewErrorEnvelope("invalid_request_error", err.Error()), http.StatusBadRequest)
		return
	}

	if req.Stream {
		h.stream(ctx, w, key, req)
		return
	}
	h.buffered(ctx, w, key, req)
}

func (h *MessagesHandler) buffered(ctx context.Context, w http.ResponseWriter, key dispatch.APIKey, req anthropicwire.Request) {
	resp, err := h.Pipeline.Dispatch(ctx, key, req)
	if err != nil {
		logDispatchError(ctx, err)
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, resp, http.StatusOK)
}

func (h *MessagesHandler) stream(ctx context.Context, w http.ResponseWriter, key dispatch.APIKey, req anthropicwire.Request) {
	if err := h.Pipeline.DispatchStream(ctx, key, req, w); err != nil {
		logDispatchError(ctx, err)
		// Only pre-flight failures (permission/model/account/upstream-open
		// errors) reach here with no bytes written yet, since
		// DispatchStream returns nil once SSE headers have been flushed.
		writeError(ctx, w, err)
	}
}

func logDispatchError(ctx context.Context, err error) {
	var terr *translator.Error
	if errors.As(err, &terr) {
		slog.ErrorContext(ctx, "dispatch failed", "kind", terr.Kind, "error", err)
		return
	}
	slog.ErrorContext(ctx, "dispatch failed", "error", err)
}
