package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/middleware"
	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/pkg/utils"
	"gorm.io/gorm"
)

type ItemsHandler struct {
	DB       *gorm.DB
	Access   *services.AccessService
	Ordering *services.OrderingService
	Audit    *services.AuditService
}

func NewItemsHandler(db *gorm.DB, access *services.AccessService, ordering *services.OrderingService, audit *services.AuditService) *ItemsHandler {
	return &ItemsHandler{DB: db, Access: access, Ordering: ordering, Audit: audit}
}

type createItemRequest struct {
	Content  string `json:"content"`
	Position *int   `json:"position"`
	Checked  bool   `json:"checked"`
}

type updateItemRequest struct {
	Content  *string `json:"content"`
	Checked  *bool   `json:"checked"`
	Position *int    `json:"position"`
}

func (h *ItemsHandler) List(c *fiber.Ctx) error {
	list, ok, err := h.resolveList(c, false)
	if !ok {
		return err
	}

	items, err := h.itemsOf(c, list.ID)
	if err != nil {
		return respondError(c, err, "failed listing items")
	}

	return utils.Success(c, fiber.StatusOK, items)
}

func (h *ItemsHandler) Create(c *fiber.Ctx) error {
	list, ok, err := h.resolveList(c, true)
	if !ok {
		return err
	}

	var req createItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	v := &services.ValidationError{}
	item := models.ListItem{
		ListID:  list.ID,
		Content: services.ValidateItemContent(v, "content", req.Content),
		Checked: req.Checked,
	}
	services.ValidatePosition(v, "position", req.Position)
	if err := v.Err(); err != nil {
		return respondError(c, err, "failed creating item")
	}

	err = h.Ordering.Place(c.UserContext(), services.ItemsOf(list.ID), req.Position, uuid.Nil, func(tx *gorm.DB, position int) error {
		item.Position = position
		return tx.Create(&item).Error
	})
	if err != nil {
		return respondError(c, err, "failed creating item")
	}

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &list.PageID,
		Action:       "item.create",
		ResourceType: "item",
		ResourceID:   &item.ID,
		Details:      map[string]interface{}{"list_id": list.ID.String()},
	})

	return utils.Success(c, fiber.StatusCreated, item)
}

func (h *ItemsHandler) Get(c *fiber.Ctx) error {
	item, _, ok, err := h.resolveItem(c, false)
	if !ok {
		return err
	}
	return utils.Success(c, fiber.StatusOK, item)
}

func (h *ItemsHandler) Update(c *fiber.Ctx) error {
	item, list, ok, err := h.resolveItem(c, true)
	if !ok {
		return err
	}

	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	v := &services.ValidationError{}
	updates := map[string]interface{}{}
	if req.Content != nil {
		updates["content"] = services.ValidateItemContent(v, "content", *req.Content)
	}
	if req.Checked != nil {
		updates["checked"] = *req.Checked
	}
	services.ValidatePosition(v, "position", req.Position)
	if err := v.Err(); err != nil {
		return respondError(c, err, "failed updating item")
	}
	if len(updates) == 0 && req.Position == nil {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	apply := func(tx *gorm.DB) error {
		if err := tx.Model(item).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(item, "id = ?", item.ID).Error
	}
	if req.Position != nil {
		err = h.Ordering.Place(c.UserContext(), services.ItemsOf(list.ID), req.Position, item.ID, func(tx *gorm.DB, position int) error {
			updates["position"] = position
			return apply(tx)
		})
	} else {
		err = apply(h.DB.WithContext(c.UserContext()))
	}
	if err != nil {
		return respondError(c, err, "failed updating item")
	}

	action := "item.update"
	if req.Checked != nil && len(updates) == 1 {
		action = "item.uncheck"
		if *req.Checked {
			action = "item.check"
		}
	}
	audit(c, h.Audit, services.AuditEntry{
		PageID:       &list.PageID,
		Action:       action,
		ResourceType: "item",
		ResourceID:   &item.ID,
		Details:      map[string]interface{}{"list_id": list.ID.String()},
	})

	return utils.Success(c, fiber.StatusOK, item)
}

func (h *ItemsHandler) Delete(c *fiber.Ctx) error {
	item, list, ok, err := h.resolveItem(c, true)
	if !ok {
		return err
	}

	if err := h.DB.WithContext(c.UserContext()).Delete(&models.ListItem{}, "id = ?", item.ID).Error; err != nil {
		return respondError(c, err, "failed deleting item")
	}

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &list.PageID,
		Action:       "item.delete",
		ResourceType: "item",
		ResourceID:   &item.ID,
		Details:      map[string]interface{}{"list_id": list.ID.String()},
	})

	return utils.NoContent(c)
}

func (h *ItemsHandler) Reorder(c *fiber.Ctx) error {
	list, ok, err := h.resolveList(c, true)
	if !ok {
		return err
	}

	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.Ordering.Reorder(c.UserContext(), services.ItemsOf(list.ID), req.Positions); err != nil {
		return respondError(c, err, "failed reordering items")
	}

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &list.PageID,
		Action:       "item.reorder",
		ResourceType: "list",
		ResourceID:   &list.ID,
		Details:      map[string]interface{}{"count": len(req.Positions)},
	})

	items, err := h.itemsOf(c, list.ID)
	if err != nil {
		return respondError(c, err, "failed listing items")
	}
	return utils.Success(c, fiber.StatusOK, items)
}

func (h *ItemsHandler) itemsOf(c *fiber.Ctx, listID uuid.UUID) ([]models.ListItem, error) {
	items := []models.ListItem{}
	err := services.SortByPosition(h.DB.WithContext(c.UserContext()).Where("list_id = ?", listID)).
		Find(&items).Error
	return items, err
}

func (h *ItemsHandler) resolveList(c *fiber.Ctx, needEdit bool) (*models.List, bool, error) {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return nil, false, utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, false, utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	list, _, err := h.Access.ResolveList(c.UserContext(), currentUser.ID, listID, needEdit)
	if err != nil {
		return nil, false, respondError(c, err, "failed loading list")
	}
	return list, true, nil
}

func (h *ItemsHandler) resolveItem(c *fiber.Ctx, needEdit bool) (*models.ListItem, *models.List, bool, error) {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return nil, nil, false, utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, nil, false, utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}
	itemID, err := parseUUID(c.Params("itemId"))
	if err != nil {
		return nil, nil, false, utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	item, list, _, err := h.Access.ResolveItem(c.UserContext(), currentUser.ID, listID, itemID, needEdit)
	if err != nil {
		return nil, nil, false, respondError(c, err, "failed loading item")
	}
	return item, list, true, nil
}
