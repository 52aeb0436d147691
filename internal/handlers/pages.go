package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kurbezz/shared-lists/internal/middleware"
	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/kurbezz/shared-lists/pkg/utils"
	"gorm.io/gorm"
)

type PagesHandler struct {
	DB     *gorm.DB
	Access *services.AccessService
	Audit  *services.AuditService
}

func NewPagesHandler(db *gorm.DB, access *services.AccessService, audit *services.AuditService) *PagesHandler {
	return &PagesHandler{DB: db, Access: access, Audit: audit}
}

type createPageRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type updatePageRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *PagesHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pages, err := h.Access.PagesForUser(c.UserContext(), currentUser.ID)
	if err != nil {
		return respondError(c, err, "failed listing pages")
	}

	return utils.Success(c, fiber.StatusOK, pages)
}

func (h *PagesHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createPageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	v := &services.ValidationError{}
	page := models.Page{
		Title:       services.ValidateTitle(v, "title", req.Title),
		Description: services.ValidateDescription(v, "description", req.Description),
		CreatorID:   currentUser.ID,
	}
	if err := v.Err(); err != nil {
		return respondError(c, err, "failed creating page")
	}

	if err := h.DB.WithContext(c.UserContext()).Create(&page).Error; err != nil {
		return respondError(c, err, "failed creating page")
	}

	logger.InfoWithUser(currentUser.ID.String(), "page_created", map[string]interface{}{
		"page_id": page.ID.String(),
	})
	audit(c, h.Audit, services.AuditEntry{
		PageID:       &page.ID,
		Action:       "page.create",
		ResourceType: "page",
		ResourceID:   &page.ID,
		Details:      map[string]interface{}{"title": page.Title},
	})

	return utils.Success(c, fiber.StatusCreated, models.PageWithPermission{
		Page:      page,
		IsCreator: true,
		CanEdit:   true,
	})
}

func (h *PagesHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	access, err := h.Access.RequireView(c.UserContext(), currentUser.ID, pageID)
	if err != nil {
		return respondError(c, err, "failed loading page")
	}

	return utils.Success(c, fiber.StatusOK, access.WithPermission())
}

func (h *PagesHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	access, err := h.Access.RequireEdit(c.UserContext(), currentUser.ID, pageID)
	if err != nil {
		return respondError(c, err, "failed updating page")
	}

	var req updatePageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	v := &services.ValidationError{}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = services.ValidateTitle(v, "title", *req.Title)
	}
	if req.Description != nil {
		updates["description"] = services.Nullable(services.ValidateDescription(v, "description", req.Description))
	}
	if err := v.Err(); err != nil {
		return respondError(c, err, "failed updating page")
	}
	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	page := access.Page
	db := h.DB.WithContext(c.UserContext())
	if err := db.Model(&page).Updates(updates).Error; err != nil {
		return respondError(c, err, "failed updating page")
	}
	if err := db.First(&page, "id = ?", page.ID).Error; err != nil {
		return respondError(c, err, "failed loading page")
	}
	access.Page = page

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &page.ID,
		Action:       "page.update",
		ResourceType: "page",
		ResourceID:   &page.ID,
	})

	return utils.Success(c, fiber.StatusOK, access.WithPermission())
}

// Delete removes the page with everything under it. Children are deleted
// explicitly so the cascade holds on stores without foreign key enforcement.
func (h *PagesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	access, err := h.Access.RequireCreator(c.UserContext(), currentUser.ID, pageID)
	if err != nil {
		return respondError(c, err, "failed deleting page")
	}

	err = h.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		listIDs := tx.Model(&models.List{}).Select("id").Where("page_id = ?", pageID)
		if err := tx.Where("list_id IN (?)", listIDs).Delete(&models.ListItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", pageID).Delete(&models.List{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", pageID).Delete(&models.PagePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Page{}, "id = ?", pageID).Error
	})
	if err != nil {
		return respondError(c, err, "failed deleting page")
	}

	logger.InfoWithUser(currentUser.ID.String(), "page_deleted", map[string]interface{}{
		"page_id": pageID.String(),
	})
	audit(c, h.Audit, services.AuditEntry{
		PageID:       &pageID,
		Action:       "page.delete",
		ResourceType: "page",
		ResourceID:   &pageID,
		Details:      map[string]interface{}{"title": access.Page.Title},
	})

	return utils.NoContent(c)
}

// Activity returns the page's audit trail, newest first.
func (h *PagesHandler) Activity(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	if _, err := h.Access.RequireView(c.UserContext(), currentUser.ID, pageID); err != nil {
		return respondError(c, err, "failed loading activity")
	}

	p := utils.ParsePagination(c)
	logs, total, err := h.Audit.PageActivity(c.UserContext(), pageID, p)
	if err != nil {
		return respondError(c, err, "failed loading activity")
	}

	return utils.Paginated(c, logs, p.Page, p.Limit, total)
}
