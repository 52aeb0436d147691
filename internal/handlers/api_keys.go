package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kurbezz/shared-lists/internal/middleware"
	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/kurbezz/shared-lists/pkg/utils"
)

type APIKeysHandler struct {
	APIKeys *services.APIKeyService
	Audit   *services.AuditService
}

func NewAPIKeysHandler(apiKeys *services.APIKeyService, audit *services.AuditService) *APIKeysHandler {
	return &APIKeysHandler{APIKeys: apiKeys, Audit: audit}
}

type createAPIKeyRequest struct {
	Name   *string  `json:"name"`
	Scopes []string `json:"scopes"`
}

type createAPIKeyResponse struct {
	ID     string        `json:"id"`
	Token  string        `json:"token"`
	APIKey models.APIKey `json:"api_key"`
}

func (h *APIKeysHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createAPIKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.APIKeys.Create(c.UserContext(), currentUser.ID, req.Name, req.Scopes)
	if err != nil {
		return respondError(c, err, "failed creating API key")
	}

	logger.InfoWithUser(currentUser.ID.String(), "api_key_created", map[string]interface{}{
		"key_id": created.Key.ID.String(),
		"prefix": created.Key.Prefix,
		"scopes": created.Key.ScopeList,
	})
	audit(c, h.Audit, services.AuditEntry{
		Action:       "api_key.create",
		ResourceType: "api_key",
		ResourceID:   &created.Key.ID,
		Details:      map[string]interface{}{"prefix": created.Key.Prefix},
	})

	return utils.Success(c, fiber.StatusCreated, createAPIKeyResponse{
		ID:     created.Key.ID.String(),
		Token:  created.Token,
		APIKey: created.Key,
	})
}

func (h *APIKeysHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	p := utils.ParsePagination(c)
	keys, total, err := h.APIKeys.List(c.UserContext(), currentUser.ID, p)
	if err != nil {
		return respondError(c, err, "failed listing API keys")
	}

	return utils.Paginated(c, keys, p.Page, p.Limit, total)
}

// Delete revokes the key, or with ?hard=true removes an already revoked key.
func (h *APIKeysHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	keyID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid API key id")
	}

	// A key may revoke itself, but only a browser session manages other keys.
	if key := middleware.GetAPIKey(c); key != nil && key.ID != keyID {
		return utils.Error(c, fiber.StatusForbidden, "API keys can only revoke themselves")
	}

	hard := c.QueryBool("hard", false)
	action := "api_key.revoke"
	if hard {
		action = "api_key.delete"
		_, err = h.APIKeys.Delete(c.UserContext(), currentUser.ID, keyID)
	} else {
		_, err = h.APIKeys.Revoke(c.UserContext(), currentUser.ID, keyID)
	}
	if err != nil {
		return respondError(c, err, "failed deleting API key")
	}

	audit(c, h.Audit, services.AuditEntry{
		Action:       action,
		ResourceType: "api_key",
		ResourceID:   &keyID,
	})

	return utils.NoContent(c)
}
