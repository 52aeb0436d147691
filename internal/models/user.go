package models

// User is keyed by the Twitch account id. Profile fields are refreshed on
// every login; the username can also be changed by the user afterwards.
type User struct {
	BaseModel
	TwitchID        string  `json:"twitch_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	Username        string  `json:"username" gorm:"type:varchar(32);not null;index"`
	DisplayName     *string `json:"display_name,omitempty" gorm:"type:varchar(64)"`
	ProfileImageURL *string `json:"profile_image_url,omitempty" gorm:"type:text"`
	Email           *string `json:"email,omitempty" gorm:"type:varchar(255)"`
}
