package tokensource

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// TokenSource wraps oauth2.TokenSource, refreshing an access token from a
// long-lived refresh token against a configurable OAuth2 endpoint. Unlike
// oauth2.Config.TokenSource, the refresh call here goes through
// option-configurable base transport rather than http.DefaultClient, so a
// caller can point it at a proxy or a custom timeout.
type TokenSource struct {
	inner oauth2.TokenSource
}

// Option configures a TokenSource.
type Option func(*tokenSourceConfig)

type tokenSourceConfig struct {
	transport http.RoundTripper
}

// WithTransport sets the base RoundTripper used for token refresh
// requests.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *tokenSourceConfig) {
		c.transport = transport
	}
}

// NewTokenSource builds a TokenSource that refreshes refreshToken against
// endpoint using clientID, re-issuing a fresh access token whenever the
// cached one expires.
func NewTokenSource(refreshToken string, endpoint oauth2.Endpoint, clientID string, opts ...Option) *TokenSource {
	cfg := &tokenSourceConfig{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(cfg)
	}

	oauthCfg := &oauth2.Config{
		ClientID: clientID,
		Endpoint: endpoint,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: cfg.transport})
	base := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	return &TokenSource{inner: oauth2.ReuseTokenSource(nil, base)}
}

// Token implements oauth2.TokenSource.
func (t *TokenSource) Token() (*oauth2.Token, error) {
	return t.inner.Token()
}
