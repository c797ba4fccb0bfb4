package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CampaignStatusDraft  = "draft"
	CampaignStatusOpen   = "open"
	CampaignStatusClosed = "closed"
)

// Campaign is a sponsor's offer that creators can apply to.
type Campaign struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SponsorID   uint           `gorm:"not null;index" json:"sponsor_id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	BudgetCents int64          `gorm:"not null;default:0" json:"budget_cents"`
	Platform    string         `gorm:"type:varchar(20);default:''" json:"platform"`
	Status      string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Deadline    *time.Time     `gorm:"type:timestamp;default:null" json:"deadline,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
