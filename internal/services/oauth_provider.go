package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kurbezz/shared-lists/internal/config"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/twitch"
)

const (
	defaultHelixURL = "https://api.twitch.tv/helix"
	StateTTL        = 10 * time.Minute
)

type OAuthProviderService struct {
	Cfg      config.OAuthConfig
	Endpoint oauth2.Endpoint
	HelixURL string
}

func NewOAuthProviderService(cfg config.OAuthConfig) *OAuthProviderService {
	return &OAuthProviderService{
		Cfg:      cfg,
		Endpoint: twitch.Endpoint,
		HelixURL: defaultHelixURL,
	}
}

type OAuthState struct {
	Nonce     string
	ExpiresAt time.Time
}

// TwitchProfile is the subset of the Helix user object we keep.
type TwitchProfile struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	ProfileImageURL string `json:"profile_image_url"`
	Email           string `json:"email"`
}

func (s *OAuthProviderService) Enabled() bool {
	return s.Cfg.TwitchClientID != "" && s.Cfg.TwitchClientSecret != ""
}

func (s *OAuthProviderService) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.Cfg.TwitchClientID,
		ClientSecret: s.Cfg.TwitchClientSecret,
		RedirectURL:  s.Cfg.TwitchRedirectURL,
		Scopes:       []string{"user:read:email"},
		Endpoint:     s.Endpoint,
	}
}

func (s *OAuthProviderService) GenerateState() (*OAuthState, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, err
	}

	return &OAuthState{
		Nonce:     base64.RawURLEncoding.EncodeToString(nonceBytes),
		ExpiresAt: time.Now().Add(StateTTL),
	}, nil
}

func (s *OAuthProviderService) AuthCodeURL(state string) string {
	return s.OAuthConfig().AuthCodeURL(state)
}

func (s *OAuthProviderService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if !s.Enabled() {
		return nil, errors.New("twitch oauth is not configured")
	}

	token, err := s.OAuthConfig().Exchange(ctx, code)
	if err != nil {
		logger.Warn("oauth_exchange_failed", map[string]interface{}{
			"provider": "twitch",
			"error":    err.Error(),
		})
		return nil, errors.New("failed to exchange code for token")
	}

	return token, nil
}

func (s *OAuthProviderService) GetUserInfo(ctx context.Context, token *oauth2.Token) (*TwitchProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.HelixURL+"/users", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", s.Cfg.TwitchClientID)

	resp, err := s.OAuthConfig().Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("twitch api returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data []TwitchProfile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 || payload.Data[0].ID == "" {
		return nil, errors.New("twitch api returned no user")
	}

	return &payload.Data[0], nil
}
