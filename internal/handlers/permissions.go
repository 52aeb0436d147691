package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/middleware"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/kurbezz/shared-lists/pkg/utils"
)

// PermissionsHandler manages who a page is shared with and whether it is
// published. Every route here is creator-only.
type PermissionsHandler struct {
	Access  *services.AccessService
	Sharing *services.SharingService
	Audit   *services.AuditService
}

func NewPermissionsHandler(access *services.AccessService, sharing *services.SharingService, audit *services.AuditService) *PermissionsHandler {
	return &PermissionsHandler{Access: access, Sharing: sharing, Audit: audit}
}

type grantPermissionRequest struct {
	UserID  string `json:"user_id"`
	CanEdit bool   `json:"can_edit"`
}

type updatePermissionRequest struct {
	CanEdit *bool `json:"can_edit"`
}

type publicSlugRequest struct {
	PublicSlug *string `json:"public_slug"`
}

func (h *PermissionsHandler) List(c *fiber.Ctx) error {
	access, ok, err := h.requireCreator(c)
	if !ok {
		return err
	}

	permissions, err := h.Sharing.ListPermissions(c.UserContext(), access.Page.ID)
	if err != nil {
		return respondError(c, err, "failed listing permissions")
	}

	return utils.Success(c, fiber.StatusOK, permissions)
}

func (h *PermissionsHandler) Grant(c *fiber.Ctx) error {
	access, ok, err := h.requireCreator(c)
	if !ok {
		return err
	}
	currentUser := middleware.GetCurrentUser(c)

	var req grantPermissionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	targetID := uuid.Nil
	if req.UserID != "" {
		targetID, err = parseUUID(req.UserID)
		if err != nil {
			return utils.ValidationFailed(c, []services.FieldError{{Field: "user_id", Message: "Invalid user id"}})
		}
	}

	permission, err := h.Sharing.Grant(c.UserContext(), access.Page, currentUser.ID, targetID, req.CanEdit)
	if err != nil {
		return respondError(c, err, "failed granting permission")
	}

	logger.InfoWithUser(currentUser.ID.String(), "page_shared", map[string]interface{}{
		"page_id":  access.Page.ID.String(),
		"user_id":  targetID.String(),
		"can_edit": req.CanEdit,
	})
	audit(c, h.Audit, services.AuditEntry{
		PageID:       &access.Page.ID,
		Action:       "permission.grant",
		ResourceType: "permission",
		ResourceID:   &permission.ID,
		Details: map[string]interface{}{
			"target_user_id": targetID.String(),
			"can_edit":       req.CanEdit,
		},
	})

	return utils.Success(c, fiber.StatusCreated, permission)
}

func (h *PermissionsHandler) Update(c *fiber.Ctx) error {
	access, ok, err := h.requireCreator(c)
	if !ok {
		return err
	}

	permissionID, err := parseUUID(c.Params("permId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid permission id")
	}

	var req updatePermissionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.CanEdit == nil {
		return utils.ValidationFailed(c, []services.FieldError{{Field: "can_edit", Message: "can_edit is required"}})
	}

	permission, err := h.Sharing.Update(c.UserContext(), access.Page.ID, permissionID, *req.CanEdit)
	if err != nil {
		return respondError(c, err, "failed updating permission")
	}

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &access.Page.ID,
		Action:       "permission.update",
		ResourceType: "permission",
		ResourceID:   &permission.ID,
		Details: map[string]interface{}{
			"target_user_id": permission.UserID.String(),
			"can_edit":       permission.CanEdit,
		},
	})

	return utils.Success(c, fiber.StatusOK, permission)
}

func (h *PermissionsHandler) Revoke(c *fiber.Ctx) error {
	access, ok, err := h.requireCreator(c)
	if !ok {
		return err
	}

	permissionID, err := parseUUID(c.Params("permId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid permission id")
	}

	permission, err := h.Sharing.Revoke(c.UserContext(), access.Page.ID, permissionID)
	if err != nil {
		return respondError(c, err, "failed revoking permission")
	}

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &access.Page.ID,
		Action:       "permission.revoke",
		ResourceType: "permission",
		ResourceID:   &permission.ID,
		Details:      map[string]interface{}{"target_user_id": permission.UserID.String()},
	})

	return utils.NoContent(c)
}

// SetPublicSlug publishes the page under the given slug; null or an empty
// string unpublishes it.
func (h *PermissionsHandler) SetPublicSlug(c *fiber.Ctx) error {
	access, ok, err := h.requireCreator(c)
	if !ok {
		return err
	}

	var req publicSlugRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	page := access.Page
	if err := h.Sharing.SetPublicSlug(c.UserContext(), &page, req.PublicSlug); err != nil {
		return respondError(c, err, "failed updating public slug")
	}
	access.Page = page

	action := "page.unpublish"
	details := map[string]interface{}{}
	if page.PublicSlug != nil {
		action = "page.publish"
		details["public_slug"] = *page.PublicSlug
	}
	audit(c, h.Audit, services.AuditEntry{
		PageID:       &page.ID,
		Action:       action,
		ResourceType: "page",
		ResourceID:   &page.ID,
		Details:      details,
	})

	return utils.Success(c, fiber.StatusOK, access.WithPermission())
}

func (h *PermissionsHandler) requireCreator(c *fiber.Ctx) (*services.PageAccess, bool, error) {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return nil, false, utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, false, utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	access, err := h.Access.RequireCreator(c.UserContext(), currentUser.ID, pageID)
	if err != nil {
		return nil, false, respondError(c, err, "failed loading page")
	}
	return access, true, nil
}
