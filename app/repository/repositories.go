package repository

import "gorm.io/gorm"

// Repositories bundles all repository instances
type Repositories struct {
	User             UserRepository
	SocialAccount    SocialAccountRepository
	SocialCredential SocialCredentialRepository
	SocialStat       SocialStatRepository
	Campaign         CampaignRepository
}

// NewRepositories creates all repositories from one DB handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:             NewUserRepository(db),
		SocialAccount:    NewSocialAccountRepository(db),
		SocialCredential: NewSocialCredentialRepository(db),
		SocialStat:       NewSocialStatRepository(db),
		Campaign:         NewCampaignRepository(db),
	}
}
