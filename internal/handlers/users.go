package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kurbezz/shared-lists/internal/middleware"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/pkg/utils"
)

type UsersHandler struct {
	Identity *services.IdentityService
	Audit    *services.AuditService
}

func NewUsersHandler(identity *services.IdentityService, audit *services.AuditService) *UsersHandler {
	return &UsersHandler{Identity: identity, Audit: audit}
}

type updateMeRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
}

func (h *UsersHandler) Me(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, currentUser)
}

func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	update := services.ProfileUpdate{Username: req.Username, DisplayName: req.DisplayName}
	if err := h.Identity.UpdateProfile(c.UserContext(), currentUser, update); err != nil {
		return respondError(c, err, "failed updating profile")
	}

	audit(c, h.Audit, services.AuditEntry{
		Action:       "user.update",
		ResourceType: "user",
		ResourceID:   &currentUser.ID,
	})

	return utils.Success(c, fiber.StatusOK, currentUser)
}

// Search finds other users to share a page with.
func (h *UsersHandler) Search(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	users, err := h.Identity.Search(c.UserContext(), currentUser.ID, c.Query("q"))
	if err != nil {
		return respondError(c, err, "failed searching users")
	}

	return utils.Success(c, fiber.StatusOK, users)
}
