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

type ListsHandler struct {
	DB       *gorm.DB
	Access   *services.AccessService
	Ordering *services.OrderingService
	Audit    *services.AuditService
}

func NewListsHandler(db *gorm.DB, access *services.AccessService, ordering *services.OrderingService, audit *services.AuditService) *ListsHandler {
	return &ListsHandler{DB: db, Access: access, Ordering: ordering, Audit: audit}
}

type createListRequest struct {
	Title          string `json:"title"`
	Position       *int   `json:"position"`
	ShowCheckboxes *bool  `json:"show_checkboxes"`
	ShowProgress   *bool  `json:"show_progress"`
}

type updateListRequest struct {
	Title          *string `json:"title"`
	Position       *int    `json:"position"`
	ShowCheckboxes *bool   `json:"show_checkboxes"`
	ShowProgress   *bool   `json:"show_progress"`
}

type reorderRequest struct {
	Positions []services.PositionUpdate `json:"positions"`
}

func (h *ListsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	if _, err := h.Access.RequireView(c.UserContext(), currentUser.ID, pageID); err != nil {
		return respondError(c, err, "failed listing lists")
	}

	lists, err := h.listsOf(c, pageID)
	if err != nil {
		return respondError(c, err, "failed listing lists")
	}

	return utils.Success(c, fiber.StatusOK, lists)
}

func (h *ListsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	if _, err := h.Access.RequireEdit(c.UserContext(), currentUser.ID, pageID); err != nil {
		return respondError(c, err, "failed creating list")
	}

	var req createListRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	v := &services.ValidationError{}
	list := models.List{
		PageID:         pageID,
		Title:          services.ValidateTitle(v, "title", req.Title),
		ShowCheckboxes: boolOrDefault(req.ShowCheckboxes, true),
		ShowProgress:   boolOrDefault(req.ShowProgress, true),
	}
	services.ValidatePosition(v, "position", req.Position)
	if err := v.Err(); err != nil {
		return respondError(c, err, "failed creating list")
	}

	err = h.Ordering.Place(c.UserContext(), services.ListsOf(pageID), req.Position, uuid.Nil, func(tx *gorm.DB, position int) error {
		list.Position = position
		return tx.Create(&list).Error
	})
	if err != nil {
		return respondError(c, err, "failed creating list")
	}

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &pageID,
		Action:       "list.create",
		ResourceType: "list",
		ResourceID:   &list.ID,
		Details:      map[string]interface{}{"title": list.Title, "position": list.Position},
	})

	return utils.Success(c, fiber.StatusCreated, list)
}

func (h *ListsHandler) Get(c *fiber.Ctx) error {
	list, _, ok, err := h.resolve(c, false)
	if !ok {
		return err
	}

	var items []models.ListItem
	if err := services.SortByPosition(h.DB.WithContext(c.UserContext()).Where("list_id = ?", list.ID)).
		Find(&items).Error; err != nil {
		return respondError(c, err, "failed loading list")
	}
	if items == nil {
		items = []models.ListItem{}
	}

	return utils.Success(c, fiber.StatusOK, models.ListWithItems{List: *list, Items: items})
}

func (h *ListsHandler) Update(c *fiber.Ctx) error {
	list, _, ok, err := h.resolve(c, true)
	if !ok {
		return err
	}

	var req updateListRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	v := &services.ValidationError{}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = services.ValidateTitle(v, "title", *req.Title)
	}
	if req.ShowCheckboxes != nil {
		updates["show_checkboxes"] = *req.ShowCheckboxes
	}
	if req.ShowProgress != nil {
		updates["show_progress"] = *req.ShowProgress
	}
	services.ValidatePosition(v, "position", req.Position)
	if err := v.Err(); err != nil {
		return respondError(c, err, "failed updating list")
	}
	if len(updates) == 0 && req.Position == nil {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	apply := func(tx *gorm.DB) error {
		if err := tx.Model(list).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(list, "id = ?", list.ID).Error
	}
	if req.Position != nil {
		err = h.Ordering.Place(c.UserContext(), services.ListsOf(list.PageID), req.Position, list.ID, func(tx *gorm.DB, position int) error {
			updates["position"] = position
			return apply(tx)
		})
	} else {
		err = apply(h.DB.WithContext(c.UserContext()))
	}
	if err != nil {
		return respondError(c, err, "failed updating list")
	}

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &list.PageID,
		Action:       "list.update",
		ResourceType: "list",
		ResourceID:   &list.ID,
		Details:      updates,
	})

	return utils.Success(c, fiber.StatusOK, list)
}

func (h *ListsHandler) Delete(c *fiber.Ctx) error {
	list, _, ok, err := h.resolve(c, true)
	if !ok {
		return err
	}

	err = h.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", list.ID).Delete(&models.ListItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.List{}, "id = ?", list.ID).Error
	})
	if err != nil {
		return respondError(c, err, "failed deleting list")
	}

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &list.PageID,
		Action:       "list.delete",
		ResourceType: "list",
		ResourceID:   &list.ID,
		Details:      map[string]interface{}{"title": list.Title},
	})

	return utils.NoContent(c)
}

// Reorder applies the whole batch or nothing and returns the new order.
func (h *ListsHandler) Reorder(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	if _, err := h.Access.RequireEdit(c.UserContext(), currentUser.ID, pageID); err != nil {
		return respondError(c, err, "failed reordering lists")
	}

	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.Ordering.Reorder(c.UserContext(), services.ListsOf(pageID), req.Positions); err != nil {
		return respondError(c, err, "failed reordering lists")
	}

	audit(c, h.Audit, services.AuditEntry{
		PageID:       &pageID,
		Action:       "list.reorder",
		ResourceType: "page",
		ResourceID:   &pageID,
		Details:      map[string]interface{}{"count": len(req.Positions)},
	})

	lists, err := h.listsOf(c, pageID)
	if err != nil {
		return respondError(c, err, "failed listing lists")
	}
	return utils.Success(c, fiber.StatusOK, lists)
}

func (h *ListsHandler) listsOf(c *fiber.Ctx, pageID uuid.UUID) ([]models.List, error) {
	lists := []models.List{}
	err := services.SortByPosition(h.DB.WithContext(c.UserContext()).Where("page_id = ?", pageID)).
		Find(&lists).Error
	return lists, err
}

// resolve loads :listId under :id. When ok is false the response has already
// been written and err is what the handler must return.
func (h *ListsHandler) resolve(c *fiber.Ctx, needEdit bool) (*models.List, *services.PageAccess, bool, error) {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return nil, nil, false, utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, nil, false, utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}
	listID, err := parseUUID(c.Params("listId"))
	if err != nil {
		return nil, nil, false, utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	list, access, err := h.Access.ResolveList(c.UserContext(), currentUser.ID, listID, needEdit)
	if err != nil {
		return nil, nil, false, respondError(c, err, "failed loading list")
	}
	if list.PageID != pageID {
		return nil, nil, false, utils.Error(c, fiber.StatusNotFound, "list not found")
	}

	return list, access, true, nil
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
