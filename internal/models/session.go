package models

import "time"

// OAuthState is a pending login nonce, consumed exactly once by the callback.
type OAuthState struct {
	Nonce     string    `gorm:"type:varchar(64);primaryKey"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// RevokedToken blocks a session JWT (by jti) after logout until it expires.
type RevokedToken struct {
	TokenID   string    `gorm:"type:varchar(36);primaryKey"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
