package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"oidc-registration-test/internal/conf"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
)

// OIDCClient wraps the identity provider endpoints and OAuth2 configuration
type OIDCClient struct {
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	httpClient   *http.Client
}

// NewOIDCClient creates a new OIDC client from static endpoints.
// No discovery request is made; the token and userinfo URLs come from config.
func NewOIDCClient(ctx context.Context, cfg *conf.Provider, timeout time.Duration) *OIDCClient {
	provider := (&oidc.ProviderConfig{
		IssuerURL:   cfg.KeycloakURL + "/auth/realms/" + cfg.Realm,
		TokenURL:    cfg.TokenURL(),
		UserInfoURL: cfg.UserInfoURL,
	}).NewProvider(ctx)

	endpoint := provider.Endpoint()
	// Keycloak confidential clients accept credentials in the form body.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	oauth2Config := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.CallbackURL(),
		Endpoint:     endpoint,
	}

	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	client.Transport = &acceptJSONTransport{base: client.Transport}

	return &OIDCClient{
		provider:     provider,
		oauth2Config: oauth2Config,
		httpClient:   client,
	}
}

// ExchangeCode exchanges an authorization code for an access token.
// The code is sent once; a rejected or consumed code is not retried.
func (c *OIDCClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	token, err := c.oauth2Config.Exchange(c.clientContext(ctx), code,
		oauth2.SetAuthURLParam("scope", conf.Scope),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: access_token missing from response", ErrTokenExchange)
	}
	return token.AccessToken, nil
}

// FetchUserInfo requests the userinfo endpoint with the access token as a bearer credential
func (c *OIDCClient) FetchUserInfo(ctx context.Context, accessToken string) (Claims, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrUserInfoFetch)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	info, err := c.provider.UserInfo(c.clientContext(ctx), ts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfoFetch, err)
	}

	claims := Claims{}
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to decode claims: %w", ErrUserInfoFetch, err)
	}
	return claims, nil
}

// clientContext carries the shared HTTP client for both oauth2 and go-oidc.
func (c *OIDCClient) clientContext(ctx context.Context) context.Context {
	return oidc.ClientContext(ctx, c.httpClient)
}
