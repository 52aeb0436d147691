package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/internal/session"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/kurbezz/shared-lists/pkg/utils"
	"gorm.io/gorm"
)

const (
	currentUserKey   = "currentUser"
	currentAPIKeyKey = "apiKey"
	sessionClaimsKey = "sessionClaims"

	// SessionCookie carries the session JWT for browser clients.
	SessionCookie = "auth_token"
)

type AuthMiddleware struct {
	DB       *gorm.DB
	Sessions session.Store
	APIKeys  *services.APIKeyService
}

func NewAuthMiddleware(db *gorm.DB, sessions session.Store, apiKeys *services.APIKeyService) *AuthMiddleware {
	return &AuthMiddleware{DB: db, Sessions: sessions, APIKeys: apiKeys}
}

func CORS(frontendURL string) fiber.Handler {
	origins := frontendURL
	if strings.Contains(frontendURL, "localhost") {
		loopback := strings.Replace(frontendURL, "localhost", "127.0.0.1", 1)
		origins = frontendURL + "," + loopback
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
	})
}

// RequireAuth accepts a bearer token (session JWT or API key) or the session
// cookie. The Authorization header wins when both are present.
func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	tokenString, ok := a.extractToken(c)
	if !ok {
		return nil
	}

	if services.IsAPIKeyToken(tokenString) {
		return a.authenticateAPIKey(c, tokenString)
	}

	return a.authenticateJWT(c, tokenString)
}

func (a *AuthMiddleware) extractToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if tokenString == authHeader || tokenString == "" {
			logger.Warn("auth_invalid_format", map[string]interface{}{
				"ip":          c.IP(),
				"path":        c.Path(),
				"auth_header": authHeader[:min(len(authHeader), 20)] + "...",
			})
			_ = utils.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
			return "", false
		}
		return tokenString, true
	}

	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie, true
	}

	logger.Warn("auth_missing_credentials", map[string]interface{}{
		"ip":   c.IP(),
		"path": c.Path(),
	})
	_ = utils.Error(c, fiber.StatusUnauthorized, "authentication required")
	return "", false
}

func (a *AuthMiddleware) authenticateJWT(c *fiber.Ctx, tokenString string) error {
	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	revoked, err := a.Sessions.IsRevoked(c.UserContext(), claims.TokenID())
	if err != nil {
		logger.Error("session_revocation_check_failed", err, map[string]interface{}{
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed to verify session")
	}
	if revoked {
		logger.Warn("jwt_revoked", map[string]interface{}{
			"ip":      c.IP(),
			"path":    c.Path(),
			"user_id": claims.UserID,
		})
		return utils.Error(c, fiber.StatusUnauthorized, "session has been revoked")
	}

	var user models.User
	if err := a.DB.WithContext(c.UserContext()).First(&user, "id = ?", claims.UserID).Error; err != nil {
		logger.Warn("jwt_user_not_found", map[string]interface{}{
			"ip":      c.IP(),
			"path":    c.Path(),
			"user_id": claims.UserID,
		})
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	setCurrentUser(c, &user)
	c.Locals(sessionClaimsKey, claims)
	return c.Next()
}

// authenticateAPIKey resolves the key and enforces its scopes: reads need
// read or write, anything that changes state needs write.
func (a *AuthMiddleware) authenticateAPIKey(c *fiber.Ctx, rawToken string) error {
	key, err := a.APIKeys.Authenticate(c.UserContext(), rawToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAPIKey) {
			logger.Warn("api_key_invalid", map[string]interface{}{
				"ip":   c.IP(),
				"path": c.Path(),
			})
			return utils.Error(c, fiber.StatusUnauthorized, "invalid API key")
		}
		logger.Error("api_key_lookup_failed", err, map[string]interface{}{
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed to verify API key")
	}

	var user models.User
	if err := a.DB.WithContext(c.UserContext()).First(&user, "id = ?", key.UserID).Error; err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	if !scopeAllows(key, c.Method()) {
		logger.WarnWithUser(user.ID.String(), "api_key_scope_denied", map[string]interface{}{
			"ip":     c.IP(),
			"path":   c.Path(),
			"method": c.Method(),
			"key_id": key.ID.String(),
		})
		return utils.Error(c, fiber.StatusForbidden, "API key does not have the required scope")
	}

	setCurrentUser(c, &user)
	c.Locals(currentAPIKeyKey, key)
	return c.Next()
}

func scopeAllows(key *models.APIKey, method string) bool {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return key.HasScope(models.ScopeRead) || key.HasScope(models.ScopeWrite)
	default:
		return key.HasScope(models.ScopeWrite)
	}
}

// SessionOnly rejects API-key callers, so a key can never mint further keys.
func SessionOnly(c *fiber.Ctx) error {
	if GetAPIKey(c) != nil {
		return utils.Error(c, fiber.StatusForbidden, "API keys cannot manage API keys")
	}
	return c.Next()
}

func setCurrentUser(c *fiber.Ctx, user *models.User) {
	c.Locals(currentUserKey, user)
	c.Locals("userID", user.ID.String())
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	value := c.Locals(currentUserKey)
	if value == nil {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func GetAPIKey(c *fiber.Ctx) *models.APIKey {
	key, _ := c.Locals(currentAPIKeyKey).(*models.APIKey)
	return key
}

// GetSessionClaims is nil for API-key callers.
func GetSessionClaims(c *fiber.Ctx) *utils.Claims {
	claims, _ := c.Locals(sessionClaimsKey).(*utils.Claims)
	return claims
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
