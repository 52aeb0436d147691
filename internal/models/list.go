package models

import "github.com/google/uuid"

// List positions are unique within a page but may have gaps.
type List struct {
	BaseModel
	PageID         uuid.UUID  `json:"page_id" gorm:"type:uuid;not null;index"`
	Title          string     `json:"title" gorm:"type:varchar(200);not null"`
	Position       int        `json:"position" gorm:"not null;index"`
	ShowCheckboxes bool       `json:"show_checkboxes" gorm:"not null"`
	ShowProgress   bool       `json:"show_progress" gorm:"not null"`
	Items          []ListItem `json:"-" gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE"`
}

type ListWithItems struct {
	List
	Items []ListItem `json:"items"`
}

type ListItem struct {
	BaseModel
	ListID   uuid.UUID `json:"list_id" gorm:"type:uuid;not null;index"`
	Content  string    `json:"content" gorm:"type:text;not null"`
	Checked  bool      `json:"checked" gorm:"not null"`
	Position int       `json:"position" gorm:"not null;index"`
}
