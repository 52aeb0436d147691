package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/pkg/utils"
	"golang.org/x/crypto/hkdf"
	"gorm.io/gorm"
)

const (
	APIKeyPrefix      = "sl_"
	MaxAPIKeysPerUser = 25

	apiKeyRandomBytes = 24
	apiKeyHashSalt    = "shared-lists-api-keys"
)

var ErrInvalidAPIKey = errors.New("invalid or revoked API key")

type APIKeyService struct {
	DB     *gorm.DB
	pepper []byte
}

// NewAPIKeyService derives the hashing key from the server secret, so a
// leaked database alone is not enough to verify guessed tokens.
func NewAPIKeyService(db *gorm.DB, secret string) *APIKeyService {
	reader := hkdf.New(sha256.New, []byte(secret), []byte(apiKeyHashSalt), []byte("api-key-hash"))
	pepper := make([]byte, 32)
	if _, err := io.ReadFull(reader, pepper); err != nil {
		panic(fmt.Sprintf("failed to derive api key pepper: %v", err))
	}
	return &APIKeyService{DB: db, pepper: pepper}
}

func IsAPIKeyToken(token string) bool {
	return strings.HasPrefix(token, APIKeyPrefix)
}

func (s *APIKeyService) Hash(token string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreatedAPIKey holds the only copy of the plaintext token the server ever returns.
type CreatedAPIKey struct {
	Token string
	Key   models.APIKey
}

func (s *APIKeyService) Create(ctx context.Context, userID uuid.UUID, name *string, scopes []string) (*CreatedAPIKey, error) {
	v := &ValidationError{}
	name = ValidateAPIKeyName(v, "name", name)
	scopes = ValidateScopes(v, "scopes", scopes)
	if err := v.Err(); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)

	var active int64
	if err := db.Model(&models.APIKey{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Count(&active).Error; err != nil {
		return nil, err
	}
	if active >= MaxAPIKeysPerUser {
		return nil, conflict(fmt.Sprintf("maximum of %d active API keys per user", MaxAPIKeysPerUser))
	}

	for attempt := 0; attempt < 3; attempt++ {
		token, err := generateAPIKeyToken()
		if err != nil {
			return nil, err
		}

		key := models.APIKey{
			UserID:    userID,
			Name:      name,
			TokenHash: s.Hash(token),
			Prefix:    token[:len(APIKeyPrefix)+5],
			Scopes:    strings.Join(scopes, ","),
			ScopeList: scopes,
		}
		err = db.Create(&key).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &CreatedAPIKey{Token: token, Key: key}, nil
	}

	return nil, errors.New("failed to generate a unique API key")
}

func (s *APIKeyService) List(ctx context.Context, userID uuid.UUID, p utils.PaginationParams) ([]models.APIKey, int64, error) {
	base := s.DB.WithContext(ctx).Model(&models.APIKey{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	keys := []models.APIKey{}
	query := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	err := utils.ApplyPagination(query, p).Find(&keys).Error
	return keys, total, err
}

// Revoke marks the key unusable. Revoking an already revoked key succeeds
// without changing anything.
func (s *APIKeyService) Revoke(ctx context.Context, userID, keyID uuid.UUID) (*models.APIKey, error) {
	key, err := s.find(ctx, userID, keyID)
	if err != nil {
		return nil, err
	}
	if key.Revoked {
		return key, nil
	}

	if err := s.DB.WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ? AND user_id = ? AND revoked = ?", keyID, userID, false).
		Update("revoked", true).Error; err != nil {
		return nil, err
	}
	key.Revoked = true

	return key, nil
}

// Delete physically removes a key, which is only allowed once it is revoked.
func (s *APIKeyService) Delete(ctx context.Context, userID, keyID uuid.UUID) (*models.APIKey, error) {
	key, err := s.find(ctx, userID, keyID)
	if err != nil {
		return nil, err
	}
	if !key.Revoked {
		return nil, conflict("API key must be revoked before it can be deleted")
	}

	if err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND revoked = ?", keyID, userID, true).
		Delete(&models.APIKey{}).Error; err != nil {
		return nil, err
	}

	return key, nil
}

// Authenticate resolves a bearer token to its active key and records its use.
func (s *APIKeyService) Authenticate(ctx context.Context, token string) (*models.APIKey, error) {
	if !IsAPIKeyToken(token) {
		return nil, ErrInvalidAPIKey
	}

	var key models.APIKey
	err := s.DB.WithContext(ctx).
		Where("token_hash = ? AND revoked = ?", s.Hash(token), false).
		First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.DB.WithContext(ctx).
		Model(&key).
		UpdateColumn("last_used_at", now).Error; err != nil {
		return nil, err
	}
	key.LastUsedAt = &now

	return &key, nil
}

func (s *APIKeyService) find(ctx context.Context, userID, keyID uuid.UUID) (*models.APIKey, error) {
	var key models.APIKey
	if err := s.DB.WithContext(ctx).First(&key, "id = ? AND user_id = ?", keyID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("API key not found")
		}
		return nil, err
	}
	return &key, nil
}

func generateAPIKeyToken() (string, error) {
	raw := make([]byte, apiKeyRandomBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return APIKeyPrefix + hex.EncodeToString(raw), nil
}
