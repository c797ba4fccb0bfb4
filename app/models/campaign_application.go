package models

import "time"

const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusAccepted = "accepted"
	ApplicationStatusRejected = "rejected"
)

// CampaignApplication is one creator's application to a campaign.
// A creator can apply to a campaign at most once.
type CampaignApplication struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;index:ux_campaign_applications_campaign_creator,unique,priority:1" json:"campaign_id"`
	CreatorID  uint      `gorm:"not null;index:ux_campaign_applications_campaign_creator,unique,priority:2" json:"creator_id"`
	Message    string    `gorm:"type:text" json:"message"`
	Status     string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
