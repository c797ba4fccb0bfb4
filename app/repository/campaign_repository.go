package repository

import (
	"gorm.io/gorm"

	"github.com/subamericanetwork/nx8up/app/models"
)

// campaignRepository implements the CampaignRepository interface
type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new campaign repository instance
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

func (r *campaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListOpen returns campaigns creators can currently apply to
func (r *campaignRepository) ListOpen(offset, limit int) ([]models.Campaign, error) {
	if limit <= 0 {
		limit = 20
	}
	var campaigns []models.Campaign
	err := r.db.Where("status = ?", models.CampaignStatusOpen).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}

// Apply records a creator's application; the unique index on
// (campaign_id, creator_id) rejects duplicates.
func (r *campaignRepository) Apply(application *models.CampaignApplication) error {
	return r.db.Create(application).Error
}

func (r *campaignRepository) ListApplicationsByCreator(creatorID uint) ([]models.CampaignApplication, error) {
	var applications []models.CampaignApplication
	err := r.db.Where("creator_id = ?", creatorID).
		Order("created_at DESC").Find(&applications).Error
	return applications, err
}
