// Package account supplies the AccountSelector contract and two reference
// implementations. Production deployments are expected to supply their
// own selector (e.g. a database-backed scheduler); the interface is the
// seam.
package account

import (
	"context"
	"net/url"

	"golang.org/x/oauth2"
)

// Account is the credential bundle the AccountSelector contract returns:
// accountId, accountType, and accountData.
type Account struct {
	ID        string
	Type      string // "openai" or "openai-responses"
	APIKey    string
	BaseURL   string
	UserAgent string
	ProxyURL  *url.URL
	// Redacted marks an Account whose APIKey is a placeholder; the caller
	// must refetch by ID once.
	Redacted bool
}

// Selector is the AccountSelector contract.
type Selector interface {
	Select(ctx context.Context, model string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
}

// StaticSelector always returns the same fixed account, ignoring model.
// Useful for single-tenant deployments and tests.
type StaticSelector struct {
	account Account
}

// NewStaticSelector builds a StaticSelector around a fixed account.
func NewStaticSelector(a Account) *StaticSelector {
	return &StaticSelector{account: a}
}

func (s *StaticSelector) Select(_ context.Context, _ string) (Account, error) {
	return s.account, nil
}

func (s *StaticSelector) GetByID(_ context.Context, _ string) (Account, error) {
	return s.account, nil
}

// OAuthSelector wraps an oauth2.TokenSource that refreshes the account's
// access token on demand. Select delegates to GetByID, so it always returns
// the full credentials and never a Redacted account. Model selection is
// ignored: this reference implementation backs exactly one account.
type OAuthSelector struct {
	id          string
	accountType string
	baseURL     string
	userAgent   string
	proxyURL    *url.URL
	tokens      oauth2.TokenSource
}

// NewOAuthSelector builds an OAuthSelector backed by tokens, targeting
// baseURL as the account's OpenAI-compatible endpoint.
func NewOAuthSelector(id, accountType, baseURL, userAgent string, proxyURL *url.URL, tokens oauth2.TokenSource) *OAuthSelector {
	return &OAuthSelector{
		id:          id,
		accountType: accountType,
		baseURL:     baseURL,
		userAgent:   userAgent,
		proxyURL:    proxyURL,
		tokens:      tokens,
	}
}

func (s *OAuthSelector) Select(ctx context.Context, _ string) (Account, error) {
	return s.GetByID(ctx, s.id)
}

func (s *OAuthSelector) GetByID(ctx context.Context, id string) (Account, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return Account{}, err
	}
	return Account{
		ID:        id,
		Type:      s.accountType,
		APIKey:    token.AccessToken,
		BaseURL:   s.baseURL,
		UserAgent: s.userAgent,
		ProxyURL:  s.proxyURL,
	}, nil
}
