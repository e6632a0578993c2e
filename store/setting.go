package store

import (
	"context"
	"errors"
	"fmt"

	"chatrelay/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingStore is the gorm-backed per-user settings store.
type SettingStore struct {
	db *gorm.DB
}

func NewSettingStore(db *gorm.DB) *SettingStore {
	return &SettingStore{db: db}
}

// APIKey returns the user's encrypted key, or "" when none is stored.
func (s *SettingStore) APIKey(ctx context.Context, userID uint) (string, error) {
	var setting model.Setting
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("finding setting: %w", err)
	}
	return setting.APIKey, nil
}

// Save upserts the user's settings row.
func (s *SettingStore) Save(ctx context.Context, setting *model.Setting) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"api_key", "updated_at"}),
		}).
		Create(setting).Error
	if err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	return nil
}
