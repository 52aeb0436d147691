package handlers

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kurbezz/shared-lists/internal/config"
	"github.com/kurbezz/shared-lists/internal/middleware"
	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/internal/session"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/kurbezz/shared-lists/pkg/utils"
)

type AuthHandler struct {
	Cfg      *config.Config
	OAuth    *services.OAuthProviderService
	Identity *services.IdentityService
	Sessions session.Store
	Audit    *services.AuditService
}

func NewAuthHandler(cfg *config.Config, oauth *services.OAuthProviderService, identity *services.IdentityService, sessions session.Store, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{
		Cfg:      cfg,
		OAuth:    oauth,
		Identity: identity,
		Sessions: sessions,
		Audit:    audit,
	}
}

// Login starts the Twitch authorization code flow.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if !h.OAuth.Enabled() {
		return utils.Error(c, fiber.StatusServiceUnavailable, "twitch login is not configured")
	}

	state, err := h.OAuth.GenerateState()
	if err != nil {
		return respondError(c, err, "failed starting login")
	}
	if err := h.Sessions.SaveState(c.UserContext(), state.Nonce, state.ExpiresAt); err != nil {
		return respondError(c, err, "failed starting login")
	}

	return c.Redirect(h.OAuth.AuthCodeURL(state.Nonce), fiber.StatusTemporaryRedirect)
}

// Callback finishes the login. Failures go back to the frontend login page
// with a readable reason; success sets the session cookie.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	if providerError := c.Query("error"); providerError != "" {
		description := c.Query("error_description", providerError)
		logger.Warn("oauth_provider_error", map[string]interface{}{
			"ip":    c.IP(),
			"error": providerError,
		})
		return h.loginFailed(c, description)
	}

	state := c.Query("state")
	if state == "" {
		return h.loginFailed(c, "missing login state")
	}
	if err := h.Sessions.ConsumeState(c.UserContext(), state); err != nil {
		logger.Warn("oauth_state_rejected", map[string]interface{}{
			"ip":    c.IP(),
			"error": err.Error(),
		})
		return h.loginFailed(c, "login session expired, please try again")
	}

	code := c.Query("code")
	if code == "" {
		return h.loginFailed(c, "authorization code is required")
	}

	user, created, err := h.completeLogin(c.UserContext(), code)
	if err != nil {
		logger.Error("oauth_login_failed", err, map[string]interface{}{
			"ip": c.IP(),
		})
		return h.loginFailed(c, "failed to sign in with twitch")
	}

	token, claims, err := utils.GenerateToken(user)
	if err != nil {
		logger.ErrorWithUser(user.ID.String(), "session_token_failed", err, nil)
		return h.loginFailed(c, "failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAtTime(),
		HTTPOnly: true,
		Secure:   h.Cfg.Server.SecureCookies(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	logger.InfoWithUser(user.ID.String(), "login_success", map[string]interface{}{
		"provider": "twitch",
		"created":  created,
	})
	audit(c, h.Audit, services.AuditEntry{
		UserID:       &user.ID,
		Action:       "user.login",
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details:      map[string]interface{}{"created": created},
	})

	return c.Redirect(h.Cfg.Server.FrontendURL + "/auth/callback")
}

func (h *AuthHandler) completeLogin(ctx context.Context, code string) (*models.User, bool, error) {
	token, err := h.OAuth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, false, err
	}

	profile, err := h.OAuth.GetUserInfo(ctx, token)
	if err != nil {
		return nil, false, err
	}

	return h.Identity.Upsert(ctx, *profile)
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, reason string) error {
	return c.Redirect(h.Cfg.Server.FrontendURL + "/login?error=" + url.QueryEscape(reason))
}

// Logout clears the session cookie and revokes the presented session token
// for the rest of its lifetime. It succeeds even without a valid session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenString := c.Cookies(middleware.SessionCookie)
	if header := c.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		tokenString = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}

	if tokenString != "" && !services.IsAPIKeyToken(tokenString) {
		if claims, err := utils.ValidateToken(tokenString); err == nil {
			if err := h.Sessions.RevokeToken(c.UserContext(), claims.TokenID(), claims.ExpiresAtTime()); err != nil {
				return respondError(c, err, "failed to log out")
			}
			logger.InfoWithUser(claims.UserID.String(), "logout", nil)
			audit(c, h.Audit, services.AuditEntry{
				UserID:       &claims.UserID,
				Action:       "user.logout",
				ResourceType: "user",
				ResourceID:   &claims.UserID,
			})
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.Cfg.Server.SecureCookies(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return utils.NoContent(c)
}
