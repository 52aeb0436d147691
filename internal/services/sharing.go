package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/models"
	"gorm.io/gorm"
)

type SharingService struct {
	DB *gorm.DB
}

func NewSharingService(db *gorm.DB) *SharingService {
	return &SharingService{DB: db}
}

func (s *SharingService) ListPermissions(ctx context.Context, pageID uuid.UUID) ([]models.PagePermission, error) {
	var permissions []models.PagePermission
	err := s.DB.WithContext(ctx).
		Preload("User").
		Where("page_id = ?", pageID).
		Order("created_at DESC").
		Find(&permissions).Error
	return permissions, err
}

// Grant gives targetID access to the page. The creator cannot be granted
// anything and an existing grant must be changed with Update instead.
func (s *SharingService) Grant(ctx context.Context, page models.Page, grantedBy, targetID uuid.UUID, canEdit bool) (*models.PagePermission, error) {
	if targetID == uuid.Nil {
		return nil, invalid("user_id", "User is required")
	}
	if targetID == page.CreatorID {
		return nil, invalid("user_id", "The page creator already has full access")
	}

	db := s.DB.WithContext(ctx)

	var target models.User
	if err := db.First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user not found")
		}
		return nil, err
	}

	var existing int64
	if err := db.Model(&models.PagePermission{}).
		Where("page_id = ? AND user_id = ?", page.ID, targetID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, conflict("user already has access to this page")
	}

	permission := models.PagePermission{
		PageID:    page.ID,
		UserID:    targetID,
		CanEdit:   canEdit,
		GrantedBy: grantedBy,
	}
	if err := db.Create(&permission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("user already has access to this page")
		}
		return nil, err
	}
	permission.User = &target

	return &permission, nil
}

func (s *SharingService) Update(ctx context.Context, pageID, permissionID uuid.UUID, canEdit bool) (*models.PagePermission, error) {
	db := s.DB.WithContext(ctx)

	var permission models.PagePermission
	if err := db.Preload("User").
		First(&permission, "id = ? AND page_id = ?", permissionID, pageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("permission not found")
		}
		return nil, err
	}

	if err := db.Model(&permission).Update("can_edit", canEdit).Error; err != nil {
		return nil, err
	}
	permission.CanEdit = canEdit

	return &permission, nil
}

// Revoke deletes the grant. Revoking a grant that no longer exists reports
// not-found rather than failing.
func (s *SharingService) Revoke(ctx context.Context, pageID, permissionID uuid.UUID) (*models.PagePermission, error) {
	db := s.DB.WithContext(ctx)

	var permission models.PagePermission
	if err := db.First(&permission, "id = ? AND page_id = ?", permissionID, pageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("permission not found")
		}
		return nil, err
	}

	result := db.Delete(&models.PagePermission{}, "id = ? AND page_id = ?", permissionID, pageID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, notFound("permission not found")
	}

	return &permission, nil
}

// SetPublicSlug publishes the page under slug, or unpublishes it when slug
// is nil. A slug held by another page is a conflict.
func (s *SharingService) SetPublicSlug(ctx context.Context, page *models.Page, slug *string) error {
	v := &ValidationError{}
	slug = ValidatePublicSlug(v, "public_slug", slug)
	if err := v.Err(); err != nil {
		return err
	}

	db := s.DB.WithContext(ctx)

	if slug != nil {
		if page.PublicSlug != nil && *page.PublicSlug == *slug {
			return nil
		}
		var taken int64
		if err := db.Model(&models.Page{}).
			Where("public_slug = ? AND id <> ?", *slug, page.ID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return conflict("public slug is already in use")
		}
	}

	if err := db.Model(page).Update("public_slug", Nullable(slug)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return conflict("public slug is already in use")
		}
		return err
	}
	page.PublicSlug = slug

	return nil
}

// PublicPage is the anonymous read-only view of a published page.
type PublicPage struct {
	Page  PublicPageInfo `json:"page"`
	Lists []PublicList   `json:"lists"`
}

type PublicPageInfo struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	PublicSlug  string    `json:"public_slug"`
}

type PublicList struct {
	ID             uuid.UUID    `json:"id"`
	Title          string       `json:"title"`
	Position       int          `json:"position"`
	ShowCheckboxes bool         `json:"show_checkboxes"`
	ShowProgress   bool         `json:"show_progress"`
	Progress       *Progress    `json:"progress,omitempty"`
	Items          []PublicItem `json:"items"`
}

// PublicItem omits Checked entirely when the list hides its checkboxes.
type PublicItem struct {
	ID       uuid.UUID `json:"id"`
	Content  string    `json:"content"`
	Checked  *bool     `json:"checked,omitempty"`
	Position int       `json:"position"`
}

type Progress struct {
	Checked int `json:"checked"`
	Total   int `json:"total"`
}

func (s *SharingService) PublicPage(ctx context.Context, slug string) (*PublicPage, error) {
	db := s.DB.WithContext(ctx)

	var page models.Page
	if err := db.First(&page, "public_slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("page not found")
		}
		return nil, err
	}

	var lists []models.List
	if err := SortByPosition(db.Where("page_id = ?", page.ID)).Find(&lists).Error; err != nil {
		return nil, err
	}

	itemsByList := map[uuid.UUID][]models.ListItem{}
	if len(lists) > 0 {
		listIDs := make([]uuid.UUID, len(lists))
		for i, l := range lists {
			listIDs[i] = l.ID
		}
		var items []models.ListItem
		if err := SortByPosition(db.Where("list_id IN ?", listIDs)).Find(&items).Error; err != nil {
			return nil, err
		}
		for _, item := range items {
			itemsByList[item.ListID] = append(itemsByList[item.ListID], item)
		}
	}

	result := &PublicPage{
		Page: PublicPageInfo{
			ID:          page.ID,
			Title:       page.Title,
			Description: page.Description,
			PublicSlug:  slug,
		},
		Lists: make([]PublicList, 0, len(lists)),
	}
	for _, list := range lists {
		result.Lists = append(result.Lists, publicList(list, itemsByList[list.ID]))
	}

	return result, nil
}

func publicList(list models.List, items []models.ListItem) PublicList {
	out := PublicList{
		ID:             list.ID,
		Title:          list.Title,
		Position:       list.Position,
		ShowCheckboxes: list.ShowCheckboxes,
		ShowProgress:   list.ShowProgress,
		Items:          make([]PublicItem, 0, len(items)),
	}

	checked := 0
	for _, item := range items {
		if item.Checked {
			checked++
		}
		publicItem := PublicItem{ID: item.ID, Content: item.Content, Position: item.Position}
		if list.ShowCheckboxes {
			state := item.Checked
			publicItem.Checked = &state
		}
		out.Items = append(out.Items, publicItem)
	}

	if list.ShowProgress {
		out.Progress = &Progress{Checked: checked, Total: len(items)}
	}

	return out
}
