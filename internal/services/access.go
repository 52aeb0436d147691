package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/models"
	"gorm.io/gorm"
)

type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// PageAccess is the outcome of resolving a page for a user.
type PageAccess struct {
	Page       models.Page
	IsCreator  bool
	Permission *models.PagePermission
}

func (a *PageAccess) CanView() bool {
	return a.IsCreator || a.Permission != nil
}

func (a *PageAccess) CanEdit() bool {
	return a.IsCreator || (a.Permission != nil && a.Permission.CanEdit)
}

func (a *PageAccess) WithPermission() models.PageWithPermission {
	return models.PageWithPermission{
		Page:      a.Page,
		IsCreator: a.IsCreator,
		CanEdit:   a.CanEdit(),
	}
}

// Resolve loads the page and the caller's relationship to it. A missing page
// yields ErrNotFound; otherwise the caller inspects CanView/CanEdit.
func (s *AccessService) Resolve(ctx context.Context, userID, pageID uuid.UUID) (*PageAccess, error) {
	var page models.Page
	if err := s.DB.WithContext(ctx).First(&page, "id = ?", pageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("page not found")
		}
		return nil, err
	}

	access := &PageAccess{Page: page, IsCreator: page.CreatorID == userID}
	if access.IsCreator {
		return access, nil
	}

	var permission models.PagePermission
	err := s.DB.WithContext(ctx).
		Where("page_id = ? AND user_id = ?", pageID, userID).
		First(&permission).Error
	switch {
	case err == nil:
		access.Permission = &permission
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return access, nil
}

// RequireView hides pages the caller cannot see behind the same not-found
// error as pages that do not exist.
func (s *AccessService) RequireView(ctx context.Context, userID, pageID uuid.UUID) (*PageAccess, error) {
	access, err := s.Resolve(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	if !access.CanView() {
		return nil, notFound("page not found")
	}
	return access, nil
}

func (s *AccessService) RequireEdit(ctx context.Context, userID, pageID uuid.UUID) (*PageAccess, error) {
	access, err := s.RequireView(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit() {
		return nil, forbidden("you do not have permission to edit this page")
	}
	return access, nil
}

// RequireCreator guards sharing settings and page deletion.
func (s *AccessService) RequireCreator(ctx context.Context, userID, pageID uuid.UUID) (*PageAccess, error) {
	access, err := s.RequireView(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	if !access.IsCreator {
		return nil, forbidden("only the page creator can perform this action")
	}
	return access, nil
}

// ResolveList loads a list and applies the view or edit check of its page.
func (s *AccessService) ResolveList(ctx context.Context, userID, listID uuid.UUID, needEdit bool) (*models.List, *PageAccess, error) {
	var list models.List
	if err := s.DB.WithContext(ctx).First(&list, "id = ?", listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFound("list not found")
		}
		return nil, nil, err
	}

	access, err := s.RequireView(ctx, userID, list.PageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, notFound("list not found")
		}
		return nil, nil, err
	}
	if needEdit && !access.CanEdit() {
		return nil, nil, forbidden("you do not have permission to edit this page")
	}

	return &list, access, nil
}

// ResolveItem loads an item of the given list after applying the list's checks.
func (s *AccessService) ResolveItem(ctx context.Context, userID, listID, itemID uuid.UUID, needEdit bool) (*models.ListItem, *models.List, *PageAccess, error) {
	list, access, err := s.ResolveList(ctx, userID, listID, needEdit)
	if err != nil {
		return nil, nil, nil, err
	}

	var item models.ListItem
	if err := s.DB.WithContext(ctx).First(&item, "id = ? AND list_id = ?", itemID, listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, notFound("item not found")
		}
		return nil, nil, nil, err
	}

	return &item, list, access, nil
}

// PagesForUser returns the pages the user created followed by the pages
// shared with them, each group newest first.
func (s *AccessService) PagesForUser(ctx context.Context, userID uuid.UUID) ([]models.PageWithPermission, error) {
	var created []models.Page
	if err := s.DB.WithContext(ctx).
		Where("creator_id = ?", userID).
		Order("created_at DESC").
		Find(&created).Error; err != nil {
		return nil, err
	}

	var permissions []models.PagePermission
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&permissions).Error; err != nil {
		return nil, err
	}

	result := make([]models.PageWithPermission, 0, len(created)+len(permissions))
	for _, page := range created {
		result = append(result, models.PageWithPermission{Page: page, IsCreator: true, CanEdit: true})
	}
	if len(permissions) == 0 {
		return result, nil
	}

	canEdit := make(map[uuid.UUID]bool, len(permissions))
	pageIDs := make([]uuid.UUID, 0, len(permissions))
	for _, p := range permissions {
		canEdit[p.PageID] = p.CanEdit
		pageIDs = append(pageIDs, p.PageID)
	}

	var shared []models.Page
	if err := s.DB.WithContext(ctx).
		Where("id IN ?", pageIDs).
		Order("created_at DESC").
		Find(&shared).Error; err != nil {
		return nil, err
	}
	for _, page := range shared {
		result = append(result, models.PageWithPermission{Page: page, IsCreator: false, CanEdit: canEdit[page.ID]})
	}

	return result, nil
}
