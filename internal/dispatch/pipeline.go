// Package dispatch implements the request pipeline wrapping the protocol
// translator with permission/model gating, account selection, upstream
// dispatch, and the streaming reframer loop.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ambergate/ambergate/internal/dispatch/account"
	"github.com/ambergate/ambergate/internal/dispatch/ratelimit"
	"github.com/ambergate/ambergate/internal/dispatch/usage"
	"github.com/ambergate/ambergate/internal/gateway/sse"
	"github.com/ambergate/ambergate/internal/translator"
	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
	"github.com/ambergate/ambergate/internal/translator/openaiwire"
	"github.com/ambergate/ambergate/internal/upstream"
)

// requiredPermission is the permission an API key must carry to reach an
// OpenAI-compatible account.
const requiredPermission = "openai"

// Pipeline wires the translator, an AccountSelector, an UpstreamClient, and
// the rate-limit/usage side channels into the single entry point
// internal/gateway calls for POST /v1/messages.
type Pipeline struct {
	Accounts account.Selector
	Upstream *upstream.Client
	Limiter  ratelimit.Limiter
	Recorder usage.Recorder
	Sessions *Sessions
}

// New builds a Pipeline from its collaborators.
func New(accounts account.Selector, upstreamClient *upstream.Client, limiter ratelimit.Limiter, recorder usage.Recorder) *Pipeline {
	return &Pipeline{
		Accounts: accounts,
		Upstream: upstreamClient,
		Limiter:  limiter,
		Recorder: recorder,
		Sessions: NewSessions(),
	}
}

// gate runs the permission and model restriction checks.
func gate(key APIKey, model string) error {
	if !key.HasPermission(requiredPermission) {
		return translator.NewPermissionDenied("API key lacks openai permission")
	}
	if !key.ModelAllowed(model) {
		return translator.NewModelRestricted("model not permitted for this API key")
	}
	return nil
}

// selectAccount selects an account, and if the result is redacted,
// refetches by id once before giving up.
func (p *Pipeline) selectAccount(ctx context.Context, model string) (account.Account, error) {
	acc, err := p.Accounts.Select(ctx, model)
	if err != nil {
		return account.Account{}, translator.NewNoAccount("no account available", err)
	}
	if acc.Redacted || acc.APIKey == "" {
		acc, err = p.Accounts.GetByID(ctx, acc.ID)
		if err != nil {
			return account.Account{}, translator.NewNoAccount("account refetch failed", err)
		}
		if acc.Redacted || acc.APIKey == "" {
			return account.Account{}, translator.NewMisconfiguredAccount("account credentials unavailable after refetch")
		}
	}
	return acc, nil
}

func targetOf(acc account.Account) upstream.Target {
	return upstream.Target{
		BaseURL:   acc.BaseURL,
		APIKey:    acc.APIKey,
		UserAgent: acc.UserAgent,
		ProxyURL:  acc.ProxyURL,
	}
}

// Dispatch runs the full non-streaming pipeline: gate, transform, select,
// call upstream, transform back, record usage.
func (p *Pipeline) Dispatch(ctx context.Context, key APIKey, req anthropicwire.Request) (*anthropicwire.Response, error) {
	if err := gate(key, req.Model); err != nil {
		return nil, err
	}

	openaiReq, err := translator.TransformRequest(req)
	if err != nil {
		return nil, translator.NewParseError("transform request", err)
	}

	acc, err := p.selectAccount(ctx, req.Model)
	if err != nil {
		return nil, err
	}

	resp, err := p.Upstream.Do(ctx, targetOf(acc), *openaiReq)
	if err != nil {
		p.handleUpstreamError(ctx, acc.ID, err)
		return nil, err
	}

	out, err := translator.TransformResponse(*resp)
	if err != nil {
		return nil, err
	}

	usage.RecordAsync(p.Recorder, context.WithoutCancel(ctx), acc.ID, out.Usage)
	p.clearRateLimit(context.WithoutCancel(ctx), acc.ID)

	return out, nil
}

// DispatchStream opens the upstream stream, pumps it through the reframer
// and StreamTranslator, and writes downstream SSE events as they're
// produced.
func (p *Pipeline) DispatchStream(ctx context.Context, key APIKey, req anthropicwire.Request, w http.ResponseWriter) error {
	if err := gate(key, req.Model); err != nil {
		return err
	}

	openaiReq, err := translator.TransformRequest(req)
	if err != nil {
		return translator.NewParseError("transform request", err)
	}

	acc, err := p.selectAccount(ctx, req.Model)
	if err != nil {
		return err
	}

	body, err := p.Upstream.Stream(ctx, targetOf(acc), *openaiReq)
	if err != nil {
		p.handleUpstreamError(ctx, acc.ID, err)
		return err
	}
	defer func() { _ = body.Close() }()

	writer, err := sse.NewWriter(w)
	if err != nil {
		return translator.NewTransportError("downstream connection does not support streaming", err)
	}

	sessionID := "msg_" + uuid.NewString()
	state := p.Sessions.Create(sessionID)
	defer p.Sessions.Delete(sessionID)

	messageStopSent := false
	reframer := sse.NewReframer(body)

	for {
		if ctx.Err() != nil {
			slog.DebugContext(ctx, "client disconnected during stream", "session_id", sessionID)
			return nil
		}

		frame, ok := reframer.Next()
		if !ok {
			if reframer.Err() == nil && !messageStopSent {
				event := translator.Done(state)
				if err := writer.WriteEvent(event.Name, event.Data); err != nil {
					return nil
				}
			}
			break
		}
		if frame.Done {
			if !messageStopSent {
				event := translator.Done(state)
				if err := writer.WriteEvent(event.Name, event.Data); err != nil {
					return nil
				}
			}
			break
		}

		var chunk openaiwire.ChatCompletionChunk
		if err := json.Unmarshal([]byte(frame.Data), &chunk); err != nil {
			continue
		}

		for _, event := range translator.Translate(state, chunk) {
			if event.Name == "message_stop" {
				messageStopSent = true
			}
			if err := writer.WriteEvent(event.Name, event.Data); err != nil {
				slog.DebugContext(ctx, "downstream write failed mid-stream", "session_id", sessionID, "error", err)
				return nil
			}
		}
	}

	usage.RecordAsync(p.Recorder, context.WithoutCancel(ctx), acc.ID, anthropicwire.NewUsage(state.InputTokens, state.OutputTokens))
	p.clearRateLimit(context.WithoutCancel(ctx), acc.ID)

	return nil
}

// handleUpstreamError detects a 429 status, extracts the reset time, and
// marks the account rate limited.
func (p *Pipeline) handleUpstreamError(ctx context.Context, accountID string, err error) {
	var terr *translator.Error
	if !errors.As(err, &terr) || terr.Kind != translator.KindUpstreamStatus || terr.Status != http.StatusTooManyRequests {
		return
	}

	var envelope openaiwire.ErrorEnvelope
	_ = json.Unmarshal(terr.Body, &envelope)

	resetAt := ratelimit.ParseResetTime(time.Now(), envelope.Error.Msg, envelope.Error.ResetsInSeconds)
	if markErr := p.Limiter.MarkLimited(context.WithoutCancel(ctx), accountID, resetAt); markErr != nil {
		slog.ErrorContext(ctx, "failed to mark account rate limited", "account_id", accountID, "error", markErr)
	}
}

// clearRateLimit checks isRateLimited on a successful completion and, if
// so, calls removeRateLimit.
func (p *Pipeline) clearRateLimit(ctx context.Context, accountID string) {
	limited, err := p.Limiter.IsLimited(ctx, accountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check rate limit state", "account_id", accountID, "error", err)
		return
	}
	if !limited {
		return
	}
	if err := p.Limiter.Remove(ctx, accountID); err != nil {
		slog.ErrorContext(ctx, "failed to clear rate limit", "account_id", accountID, "error", err)
	}
}
