package repository

import (
	"gorm.io/gorm"

	"github.com/subamericanetwork/nx8up/app/models"
)

// socialStatRepository implements the SocialStatRepository interface
type socialStatRepository struct {
	db *gorm.DB
}

// NewSocialStatRepository creates a new stat snapshot repository instance
func NewSocialStatRepository(db *gorm.DB) SocialStatRepository {
	return &socialStatRepository{db: db}
}

// Append inserts a new snapshot row; snapshots are never updated
func (r *socialStatRepository) Append(stat *models.SocialStat) error {
	return r.db.Create(stat).Error
}

// LatestByAccount returns the most recent snapshot for an account
func (r *socialStatRepository) LatestByAccount(accountID string) (*models.SocialStat, error) {
	var stat models.SocialStat
	err := r.db.Where("account_id = ?", accountID).
		Order("recorded_at DESC").First(&stat).Error
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// ListByAccount returns snapshots newest first
func (r *socialStatRepository) ListByAccount(accountID string, limit int) ([]models.SocialStat, error) {
	if limit <= 0 {
		limit = 30
	}
	var stats []models.SocialStat
	err := r.db.Where("account_id = ?", accountID).
		Order("recorded_at DESC").Limit(limit).Find(&stats).Error
	return stats, err
}
