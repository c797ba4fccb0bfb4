package models

import "time"

// Supported social platforms
const (
	PlatformYouTube   = "youtube"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformTwitter   = "twitter"
)

// SocialPlatforms lists every platform a creator can link, in display order.
var SocialPlatforms = []string{PlatformYouTube, PlatformInstagram, PlatformTikTok, PlatformTwitter}

// IsValidPlatform reports whether p names a supported platform.
func IsValidPlatform(p string) bool {
	for _, v := range SocialPlatforms {
		if v == p {
			return true
		}
	}
	return false
}

// SocialAccount is a creator's linked identity on one external platform.
// At most one active row may exist per (creator_id, platform); relinking
// the same platform replaces the row via upsert instead of duplicating it.
// Tokens never live here; they belong to SocialCredential.
type SocialAccount struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatorID       uint       `gorm:"not null;index:ux_social_accounts_creator_platform,unique,priority:1" json:"creator_id"`
	Platform        string     `gorm:"type:varchar(20);not null;index:ux_social_accounts_creator_platform,unique,priority:2" json:"platform"`
	PlatformUserID  string     `gorm:"type:varchar(191);not null;index" json:"platform_user_id"`
	Username        string     `gorm:"type:varchar(191)" json:"username"`
	DisplayName     string     `gorm:"type:varchar(191)" json:"display_name"`
	ProfileImageURL string     `gorm:"type:varchar(512)" json:"profile_image_url"`
	IsActive        bool       `gorm:"not null;default:true;index" json:"is_active"`
	ConnectedAt     time.Time  `gorm:"type:timestamp" json:"connected_at"`
	LastSyncedAt    *time.Time `gorm:"type:timestamp;default:null" json:"last_synced_at,omitempty"`
	TokenExpiresAt  *time.Time `gorm:"type:timestamp;default:null" json:"token_expires_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
