package service

import (
	"context"
	"fmt"

	"chatrelay/model"
	"chatrelay/platform"
)

// SettingService manages per-user settings. Provider API keys are encrypted
// at rest and only ever decrypted inside the relay pipeline.
type SettingService struct {
	store  SettingStore
	cipher *platform.Cipher
}

func NewSettingService(store SettingStore, cipher *platform.Cipher) *SettingService {
	return &SettingService{store: store, cipher: cipher}
}

// SaveAPIKey encrypts and stores the user's provider key. An empty key
// clears the stored value.
func (s *SettingService) SaveAPIKey(ctx context.Context, userID uint, apiKey string) error {
	encrypted := ""
	if apiKey != "" {
		var err error
		encrypted, err = s.cipher.Encrypt(apiKey)
		if err != nil {
			return fmt.Errorf("encrypting api key: %w", err)
		}
	}
	return s.store.Save(ctx, &model.Setting{
		UserID: userID,
		APIKey: encrypted,
	})
}

// HasAPIKey reports whether the user has a stored key, without decrypting it.
func (s *SettingService) HasAPIKey(ctx context.Context, userID uint) (bool, error) {
	encrypted, err := s.store.APIKey(ctx, userID)
	if err != nil {
		return false, err
	}
	return encrypted != "", nil
}
