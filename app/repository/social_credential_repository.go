package repository

import (
	"gorm.io/gorm"

	"github.com/subamericanetwork/nx8up/app/models"
)

// socialCredentialRepository implements the SocialCredentialRepository interface
type socialCredentialRepository struct {
	db *gorm.DB
}

// NewSocialCredentialRepository creates the narrow credential accessor
func NewSocialCredentialRepository(db *gorm.DB) SocialCredentialRepository {
	return &socialCredentialRepository{db: db}
}

func (r *socialCredentialRepository) GetByAccountID(accountID string) (*models.SocialCredential, error) {
	var credential models.SocialCredential
	if err := r.db.Where("account_id = ?", accountID).First(&credential).Error; err != nil {
		return nil, err
	}
	return &credential, nil
}

func (r *socialCredentialRepository) DeleteByAccountID(accountID string) error {
	return r.db.Where("account_id = ?", accountID).Delete(&models.SocialCredential{}).Error
}
