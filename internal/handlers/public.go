package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/pkg/utils"
)

type PublicHandler struct {
	Sharing *services.SharingService
}

func NewPublicHandler(sharing *services.SharingService) *PublicHandler {
	return &PublicHandler{Sharing: sharing}
}

// Get serves a published page to anyone holding its slug.
func (h *PublicHandler) Get(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	if slug == "" {
		return utils.Error(c, fiber.StatusNotFound, "page not found")
	}

	page, err := h.Sharing.PublicPage(c.UserContext(), slug)
	if err != nil {
		return respondError(c, err, "failed loading page")
	}

	return utils.Success(c, fiber.StatusOK, page)
}
