package repository

import (
	"time"

	"github.com/subamericanetwork/nx8up/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// SocialAccountRepository defines the interface for linked social accounts.
// Listing methods never load credentials; token access goes through
// SocialCredentialRepository only.
type SocialAccountRepository interface {
	// Link upserts the account keyed by (creator_id, platform) and writes the
	// credential in the same transaction. An account is never visible as
	// connected without a usable credential.
	Link(account *models.SocialAccount, credential *models.SocialCredential) (*models.SocialAccount, error)
	GetByID(id string) (*models.SocialAccount, error)
	GetActiveByID(id string) (*models.SocialAccount, error)
	GetByCreatorAndPlatform(creatorID uint, platform string) (*models.SocialAccount, error)
	ListActiveByCreator(creatorID uint) ([]models.SocialAccount, error)
	// Disconnect soft-disables the account and hard-deletes its credential.
	Disconnect(id string) error
	UpdateLastSynced(id string, at time.Time) error
	// UpdateProfileImageURL swaps the stored avatar URL for the mirrored one.
	UpdateProfileImageURL(id string, url string) error
}

// SocialCredentialRepository is the narrow accessor for stored token pairs.
// It is intended for the stats synchronizer and the callback processor, not
// for general listing paths.
type SocialCredentialRepository interface {
	GetByAccountID(accountID string) (*models.SocialCredential, error)
	DeleteByAccountID(accountID string) error
}

// SocialStatRepository manages append-only engagement snapshots.
type SocialStatRepository interface {
	Append(stat *models.SocialStat) error
	LatestByAccount(accountID string) (*models.SocialStat, error)
	ListByAccount(accountID string, limit int) ([]models.SocialStat, error)
}

// CampaignRepository defines the interface for marketplace campaigns.
type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	GetByID(id uint) (*models.Campaign, error)
	ListOpen(offset, limit int) ([]models.Campaign, error)
	Update(campaign *models.Campaign) error
	Apply(application *models.CampaignApplication) error
	ListApplicationsByCreator(creatorID uint) ([]models.CampaignApplication, error)
}
