package api

import "time"

type User struct {
	ID              string    `json:"id"`
	TwitchID        string    `json:"twitch_id"`
	Username        string    `json:"username"`
	DisplayName     *string   `json:"display_name,omitempty"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
	Email           *string   `json:"email,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Page is a page together with the caller's relationship to it.
type Page struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	CreatorID   string    `json:"creator_id"`
	PublicSlug  *string   `json:"public_slug,omitempty"`
	IsCreator   bool      `json:"is_creator"`
	CanEdit     bool      `json:"can_edit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type List struct {
	ID             string    `json:"id"`
	PageID         string    `json:"page_id"`
	Title          string    `json:"title"`
	Position       int       `json:"position"`
	ShowCheckboxes bool      `json:"show_checkboxes"`
	ShowProgress   bool      `json:"show_progress"`
	Items          []Item    `json:"items,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Item struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Content   string    `json:"content"`
	Checked   bool      `json:"checked"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Permission struct {
	ID        string    `json:"id"`
	PageID    string    `json:"page_id"`
	UserID    string    `json:"user_id"`
	CanEdit   bool      `json:"can_edit"`
	GrantedBy string    `json:"granted_by"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type APIKey struct {
	ID         string     `json:"id"`
	Name       *string    `json:"name,omitempty"`
	Prefix     string     `json:"prefix"`
	Scopes     []string   `json:"scopes"`
	Revoked    bool       `json:"revoked"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PositionUpdate is one entry of a reorder batch.
type PositionUpdate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}
