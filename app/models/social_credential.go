package models

import "time"

// SocialCredential stores the encrypted token pair for one SocialAccount.
// Columns hold ciphertext only; encryption and decryption go through the
// secrets vault, there is no plaintext write path. The row is hard-deleted
// on disconnect while the account itself is only soft-disabled.
type SocialCredential struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	AccountID       string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"account_id"`
	AccessTokenEnc  string     `gorm:"type:text" json:"-"`
	RefreshTokenEnc string     `gorm:"type:text" json:"-"`
	ExpiresAt       *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"-"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"-"`
}
