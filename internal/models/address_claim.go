package models

import (
	"time"
)

// AddressClaim is the last accepted claim for one network address.
type AddressClaim struct {
	Address       string    `gorm:"primaryKey;size:45" json:"address"`
	ClaimedOption string    `gorm:"size:64;not null" json:"claimed_option"`
	LastClaimedAt time.Time `gorm:"not null;index" json:"last_claimed_at"`
	CallerAgent   string    `gorm:"type:text" json:"caller_agent,omitempty"` // advisory only
}

func (AddressClaim) TableName() string {
	return "address_claims"
}
