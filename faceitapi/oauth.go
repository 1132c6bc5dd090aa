package faceitapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// OAuth endpoints for FACEIT account linking. The authorization code flow uses
// PKCE (S256) since the flow starts from a chat command and involves no stored secret
// on the user's side.
const (
	authorizeURL = "https://accounts.faceit.com"
	tokenURL     = "https://api.faceit.com/auth/v1/oauth/token"
	userInfoURL  = "https://api.faceit.com/auth/v1/resources/userinfo"
)

// OAuthConfig builds the oauth2 configuration for the FACEIT linking flow.
func OAuthConfig(clientID, clientSecret, redirectURI, scopes string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       splitScopes(scopes),
		Endpoint: oauth2.Endpoint{
			AuthURL:  authorizeURL,
			TokenURL: tokenURL,
		},
	}
}

func splitScopes(scopes string) []string {
	return strings.Fields(strings.ReplaceAll(scopes, ",", " "))
}

// GenerateVerifier returns a fresh PKCE code verifier.
func GenerateVerifier() string { return oauth2.GenerateVerifier() }

// BuildAuthorizeURL constructs the user authorization URL with PKCE challenge and state.
func BuildAuthorizeURL(cfg *oauth2.Config, state, verifier string) (string, error) {
	if cfg.ClientID == "" || cfg.RedirectURL == "" {
		return "", errors.New("missing clientID or redirectURI")
	}
	return cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// ExchangeAuthCode exchanges an authorization code (plus the PKCE verifier) for tokens.
func ExchangeAuthCode(ctx context.Context, cfg *oauth2.Config, code, verifier string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}
	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("faceit auth code exchange failed: %w", err)
	}
	return tok, nil
}

// UserInfo is the subset of the OpenID userinfo response the linking flow needs.
type UserInfo struct {
	GUID     string `json:"guid"`
	Nickname string `json:"nickname"`
}

// FetchUserInfo resolves the authenticated user's FACEIT id and nickname.
func FetchUserInfo(ctx context.Context, hc *http.Client, accessToken string) (*UserInfo, error) {
	if accessToken == "" {
		return nil, errors.New("missing access token")
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("faceit userinfo failed: %s: %s", resp.Status, string(b))
	}
	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.GUID == "" {
		return nil, errors.New("faceit userinfo: missing guid")
	}
	return &info, nil
}
