package models

import "time"

// SocialStat is one immutable engagement snapshot for a SocialAccount.
// Rows are append-only; "current stats" is the row with the latest
// RecordedAt for the account.
type SocialStat struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	AccountID          string    `gorm:"type:varchar(36);not null;index:idx_social_stats_account_recorded,priority:1" json:"account_id"`
	FollowersCount     int64     `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount     int64     `gorm:"not null;default:0" json:"following_count"`
	PostsCount         int64     `gorm:"not null;default:0" json:"posts_count"`
	LikesCount         int64     `gorm:"not null;default:0" json:"likes_count"`
	ViewsCount         int64     `gorm:"not null;default:0" json:"views_count"`
	EngagementRate     float64   `gorm:"type:decimal(5,2);not null;default:0" json:"engagement_rate"`
	AvgLikesPerPost    int64     `gorm:"not null;default:0" json:"avg_likes_per_post"`
	AvgCommentsPerPost int64     `gorm:"not null;default:0" json:"avg_comments_per_post"`
	RecordedAt         time.Time `gorm:"type:timestamp;index:idx_social_stats_account_recorded,priority:2" json:"recorded_at"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
}
