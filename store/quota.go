package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatrelay/model"

	"gorm.io/gorm"
)

// QuotaStore is the gorm-backed guest quota record store.
type QuotaStore struct {
	db *gorm.DB
}

func NewQuotaStore(db *gorm.DB) *QuotaStore {
	return &QuotaStore{db: db}
}

// Find returns (nil, nil) when no record exists for the guest.
func (s *QuotaStore) Find(ctx context.Context, guestID string) (*model.GuestQuota, error) {
	var rec model.GuestQuota
	err := s.db.WithContext(ctx).Where("guest_id = ?", guestID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding guest quota: %w", err)
	}
	return &rec, nil
}

func (s *QuotaStore) Create(ctx context.Context, rec *model.GuestQuota) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("creating guest quota: %w", err)
	}
	return nil
}

func (s *QuotaStore) Update(ctx context.Context, rec *model.GuestQuota) error {
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("updating guest quota: %w", err)
	}
	return nil
}

func (s *QuotaStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("last_reset < ?", before).
		Delete(&model.GuestQuota{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting expired guest quotas: %w", result.Error)
	}
	return result.RowsAffected, nil
}
