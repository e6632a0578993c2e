package model

import "gorm.io/gorm"

// InstallDB migrates every table the gateway uses.
func InstallDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Conversation{},
		&Message{},
		&GuestQuota{},
		&Setting{},
	)
}
