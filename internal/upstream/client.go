// Package upstream implements the HTTP client that speaks the OpenAI
// chat-completions wire format to whatever backend an Account points at.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ambergate/ambergate/internal/translator"
	"github.com/ambergate/ambergate/internal/translator/openaiwire"
)

// DefaultTimeout is the request timeout used absent per-account
// configuration.
const DefaultTimeout = 600 * time.Second

const defaultUserAgent = "ambergate/1"

// Client issues chat-completion requests to an OpenAI-compatible backend.
type Client struct {
	transport http.RoundTripper
}

// New builds a Client. transport is the base RoundTripper; per-request
// proxying and timeouts are layered on in Do via the http.Client it builds,
// keeping one shared idle-connection pool across accounts that don't need a
// proxy while still honoring those that do.
func New(transport http.RoundTripper) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{transport: transport}
}

// Target describes where and how to reach an account's backend, and is
// supplied by the caller's AccountSelector result.
type Target struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
	ProxyURL  *url.URL
}

// httpClient builds a request-scoped *http.Client honoring the target's
// timeout and optional per-account HTTP(S) proxy.
func (c *Client) httpClient(t Target) *http.Client {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rt := c.transport
	if t.ProxyURL != nil {
		if base, ok := c.transport.(*http.Transport); ok {
			cloned := base.Clone()
			cloned.Proxy = http.ProxyURL(t.ProxyURL)
			rt = cloned
		} else {
			rt = &http.Transport{Proxy: http.ProxyURL(t.ProxyURL)}
		}
	}

	return &http.Client{Timeout: timeout, Transport: rt}
}

func (c *Client) newRequest(ctx context.Context, t Target, body []byte) (*http.Request, error) {
	endpoint, err := url.JoinPath(t.BaseURL, "chat/completions")
	if err != nil {
		return nil, fmt.Errorf("build upstream URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.APIKey)
	userAgent := t.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// Do issues a non-streaming chat-completions call and returns the decoded
// response. Transport failures map to KindTransportError; a non-2xx status
// maps to KindUpstreamStatus carrying the raw body so the dispatch layer
// can classify it (rate limit, passthrough, etc.); a 2xx body that isn't
// valid JSON maps to KindParseError.
func (c *Client) Do(ctx context.Context, t Target, body openaiwire.ChatCompletionRequest) (*openaiwire.ChatCompletionResponse, error) {
	body.Stream = false
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, translator.NewParseError("encode upstream request", err)
	}

	req, err := c.newRequest(ctx, t, encoded)
	if err != nil {
		return nil, translator.NewTransportError("build upstream request", err)
	}

	resp, err := c.httpClient(t).Do(req)
	if err != nil {
		return nil, translator.NewTransportError("upstream request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, translator.NewTransportError("read upstream response", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, translator.NewUpstreamStatus(resp.StatusCode, respBody, "upstream returned an error status")
	}

	var decoded openaiwire.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, translator.NewParseError("decode upstream response", err)
	}

	return &decoded, nil
}

// Stream issues a streaming chat-completions call and returns the raw
// response body for the caller to reframe (internal/gateway/sse.Reframer). The
// caller owns closing the returned body.
func (c *Client) Stream(ctx context.Context, t Target, body openaiwire.ChatCompletionRequest) (io.ReadCloser, error) {
	body.Stream = true
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, translator.NewParseError("encode upstream request", err)
	}

	req, err := c.newRequest(ctx, t, encoded)
	if err != nil {
		return nil, translator.NewTransportError("build upstream request", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient(t).Do(req)
	if err != nil {
		return nil, translator.NewTransportError("upstream request failed", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, translator.NewUpstreamStatus(resp.StatusCode, respBody, "upstream returned an error status")
	}

	return resp.Body, nil
}
