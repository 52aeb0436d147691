package session

import (
	"context"
	"time"

	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore keeps session state in the main database when Redis is not configured.
type DBStore struct {
	DB *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{DB: db}
}

func (s *DBStore) SaveState(ctx context.Context, nonce string, expiresAt time.Time) error {
	return s.DB.WithContext(ctx).Create(&models.OAuthState{Nonce: nonce, ExpiresAt: expiresAt.UTC()}).Error
}

func (s *DBStore) ConsumeState(ctx context.Context, nonce string) error {
	result := s.DB.WithContext(ctx).
		Where("nonce = ? AND expires_at > ?", nonce, time.Now().UTC()).
		Delete(&models.OAuthState{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateNotFound
	}
	return nil
}

func (s *DBStore) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{TokenID: tokenID, ExpiresAt: expiresAt.UTC()}).Error
}

func (s *DBStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("token_id = ? AND expires_at > ?", tokenID, time.Now().UTC()).
		Count(&count).Error
	return count > 0, err
}

// Sweep deletes expired rows; Redis does this on its own through TTLs.
func (s *DBStore) Sweep(ctx context.Context) error {
	now := time.Now().UTC()
	if err := s.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.OAuthState{}).Error; err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.RevokedToken{}).Error
}

func (s *DBStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Sweep(ctx); err != nil {
					logger.Error("session_sweep_failed", err, nil)
				}
			}
		}
	}()
}
