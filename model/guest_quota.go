package model

import "time"

// GuestQuota tracks the rolling message quota for one guest identity. The
// key combines client IP and an optional fingerprint ("ip" or
// "ip:fingerprint").
type GuestQuota struct {
	GuestID   string    `gorm:"primaryKey;type:varchar(255)" json:"guest_id"`
	Count     int       `gorm:"default:0" json:"count"`
	LastReset time.Time `json:"last_reset"`
}

// TableName keeps the table name plural like the rest of the schema.
func (GuestQuota) TableName() string {
	return "guest_quotas"
}
