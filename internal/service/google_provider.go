package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleConfig carries the Google OAuth application credentials.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type googleProvider struct {
	oauth oauth2.Config
}

// NewGoogleProvider builds the Google OAuthIdentityProvider used by the auth
// orchestrator's OAuth entry path.
func NewGoogleProvider(cfg GoogleConfig) OAuthIdentityProvider {
	return &googleProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     googleoauth.Endpoint,
		},
	}
}

func (p *googleProvider) Identity(ctx context.Context, code string) (string, string, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Get(googleUserinfoURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch user identity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("identity endpoint returned status %d", resp.StatusCode)
	}

	var info struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("failed to decode identity payload: %w", err)
	}

	if info.Email == "" {
		return "", "", fmt.Errorf("identity payload missing email")
	}

	return info.Name, info.Email, nil
}
