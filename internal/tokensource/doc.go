// Package tokensource provides OAuth2 token acquisition and automatic
// refresh for the reference OAuthSelector's upstream credentials.
//
// A handful of OpenAI-compatible providers deviate from plain OAuth2 in the
// same few ways this package accommodates:
//   - Token exchange uses a JSON-encoded request body rather than
//     form-encoding. (Refresh, through NewTokenSource, uses
//     golang.org/x/oauth2's standard form-encoded request.)
//   - Token exchange requires a "state" field in the request body.
//   - Authorization codes are returned in "code#state" format requiring
//     custom parsing.
//
// # OAuth2 Authorization Flow
//
// Use Authorizer for the initial OAuth2 flow to obtain refresh tokens:
//
//	auth := tokensource.NewAuthorizer(endpoint, clientID, redirectURL, scopes)
//	verifier := oauth2.GenerateVerifier() // Save for Exchange call
//	authURL := auth.AuthCodeURL(verifier)
//	// After the user authorizes, the provider redirects with "code#state" format
//	codeWithState := "auth_code_xyz#state_value" // Extract from redirect
//	token, err := auth.Exchange(ctx, codeWithState, verifier)
//	// Save token.RefreshToken for future use
//
// # Token Sources
//
// Use NewTokenSource for OAuth2 refresh tokens:
//
//	ts := tokensource.NewTokenSource(refreshToken, endpoint, clientID)
//	// TokenSource implements oauth2.TokenSource and can be used with oauth2.Transport
//
// # Custom Base Transport
//
// Configure a custom base transport for token refresh requests (e.g., for
// proxies or custom timeouts):
//
//	ts := tokensource.NewTokenSource(
//	  refreshToken,
//	  endpoint,
//	  clientID,
//	  tokensource.WithTransport(customTransport),
//	)
package tokensource
