package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/models"
	"gorm.io/gorm"
)

const (
	MinSearchQueryLength = 2
	MaxSearchResults     = 10
)

type IdentityService struct {
	DB *gorm.DB
}

func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{DB: db}
}

// Upsert creates the user on first login. Later logins refresh the display
// name, avatar and email; the username stays whatever the user chose.
func (s *IdentityService) Upsert(ctx context.Context, profile TwitchProfile) (*models.User, bool, error) {
	db := s.DB.WithContext(ctx)

	var user models.User
	err := db.First(&user, "twitch_id = ?", profile.ID).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"display_name":      Nullable(optional(profile.DisplayName)),
			"profile_image_url": Nullable(optional(profile.ProfileImageURL)),
			"email":             Nullable(optional(profile.Email)),
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, false, err
		}
		user.DisplayName = optional(profile.DisplayName)
		user.ProfileImageURL = optional(profile.ProfileImageURL)
		user.Email = optional(profile.Email)
		return &user, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, err
	}

	user = models.User{
		TwitchID:        profile.ID,
		Username:        profile.Login,
		DisplayName:     optional(profile.DisplayName),
		ProfileImageURL: optional(profile.ProfileImageURL),
		Email:           optional(profile.Email),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

type ProfileUpdate struct {
	Username    *string
	DisplayName *string
}

func (s *IdentityService) UpdateProfile(ctx context.Context, user *models.User, update ProfileUpdate) error {
	v := &ValidationError{}
	updates := map[string]interface{}{}

	if update.Username != nil {
		updates["username"] = ValidateUsername(v, "username", *update.Username)
	}
	if update.DisplayName != nil {
		updates["display_name"] = Nullable(ValidateDisplayName(v, "display_name", update.DisplayName))
	}
	if err := v.Err(); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.DB.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return err
	}
	return s.DB.WithContext(ctx).First(user, "id = ?", user.ID).Error
}

// Search matches username or display name case-insensitively, excluding the
// caller. Queries shorter than two characters return nothing.
func (s *IdentityService) Search(ctx context.Context, callerID uuid.UUID, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	users := []models.User{}
	if len([]rune(query)) < MinSearchQueryLength {
		return users, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := s.DB.WithContext(ctx).
		Where("id <> ?", callerID).
		Where("LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(display_name) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("username ASC").
		Limit(MaxSearchResults).
		Find(&users).Error
	return users, err
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

// Nullable turns a nil *string into an untyped nil so update maps write NULL.
func Nullable(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
