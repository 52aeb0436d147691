package models

import "github.com/google/uuid"

type Page struct {
	BaseModel
	Title       string           `json:"title" gorm:"type:varchar(200);not null"`
	Description *string          `json:"description,omitempty" gorm:"type:text"`
	CreatorID   uuid.UUID        `json:"creator_id" gorm:"type:uuid;not null;index"`
	PublicSlug  *string          `json:"public_slug,omitempty" gorm:"type:varchar(50);uniqueIndex"`
	Creator     *User            `json:"-" gorm:"foreignKey:CreatorID"`
	Lists       []List           `json:"-" gorm:"foreignKey:PageID;constraint:OnDelete:CASCADE"`
	Permissions []PagePermission `json:"-" gorm:"foreignKey:PageID;constraint:OnDelete:CASCADE"`
}

// PageWithPermission is a page as seen by one particular user.
type PageWithPermission struct {
	Page
	IsCreator bool `json:"is_creator"`
	CanEdit   bool `json:"can_edit"`
}

// PagePermission grants a non-creator access to a page. A row always implies
// view access; CanEdit adds content editing. The creator never has a row.
type PagePermission struct {
	BaseModel
	PageID    uuid.UUID `json:"page_id" gorm:"type:uuid;not null;uniqueIndex:idx_page_permissions_page_user"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_page_permissions_page_user;index"`
	CanEdit   bool      `json:"can_edit" gorm:"not null"`
	GrantedBy uuid.UUID `json:"granted_by" gorm:"type:uuid;not null"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
