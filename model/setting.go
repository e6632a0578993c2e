package model

import "time"

// Setting holds per-user preferences. APIKey is stored encrypted as
// "ivhex:cipherhex" and is only ever decrypted server-side.
type Setting struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	APIKey    string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
