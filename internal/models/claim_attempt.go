package models

import (
	"time"
)

// ClaimAttempt is one submission outcome kept for diagnostics. Never used in decisions.
type ClaimAttempt struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OptionID   string    `gorm:"size:64;index" json:"option_id"`
	Outcome    string    `gorm:"size:32;not null;index" json:"outcome"`
	Timestamp  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
	IPAddress  string    `gorm:"size:45" json:"ip_address,omitempty"` // masked before insert
	Country    string    `gorm:"size:100;default:'Unknown'" json:"country"`
	Browser    string    `gorm:"size:50" json:"browser"`
	OS         string    `gorm:"size:100" json:"os"`
	DeviceType string    `gorm:"size:50" json:"device_type"`
	Agent      string    `gorm:"type:text" json:"-"` // raw caller agent, parsed before insert
	RequestID  string    `gorm:"size:36" json:"request_id"`
}
