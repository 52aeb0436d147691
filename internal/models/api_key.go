package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

type APIKey struct {
	BaseModel
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Name       *string    `json:"name,omitempty" gorm:"type:varchar(100)"`
	TokenHash  string     `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	Prefix     string     `json:"prefix" gorm:"type:varchar(12);not null"`
	Scopes     string     `json:"-" gorm:"type:varchar(255);not null"`
	ScopeList  []string   `json:"scopes" gorm:"-"`
	Revoked    bool       `json:"revoked" gorm:"not null;index"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	User       *User      `json:"-" gorm:"foreignKey:UserID"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

func (k *APIKey) AfterFind(_ *gorm.DB) error {
	k.ScopeList = SplitScopes(k.Scopes)
	return nil
}

func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.ScopeList {
		if s == scope {
			return true
		}
	}
	return false
}

func SplitScopes(raw string) []string {
	scopes := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			scopes = append(scopes, part)
		}
	}
	return scopes
}
