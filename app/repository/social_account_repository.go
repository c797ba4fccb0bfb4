package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/subamericanetwork/nx8up/app/models"
)

// socialAccountRepository implements the SocialAccountRepository interface
type socialAccountRepository struct {
	db *gorm.DB
}

// NewSocialAccountRepository creates a new social account repository instance
func NewSocialAccountRepository(db *gorm.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

// Link upserts the account on (creator_id, platform) and writes the credential
// in the same transaction. The upsert keeps the existing primary key when the
// creator relinks a platform, so snapshot history stays attached.
func (r *socialAccountRepository) Link(account *models.SocialAccount, credential *models.SocialCredential) (*models.SocialAccount, error) {
	var linked models.SocialAccount

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "creator_id"}, {Name: "platform"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"platform_user_id", "username", "display_name", "profile_image_url",
				"is_active", "connected_at", "token_expires_at", "updated_at",
			}),
		}).Create(account).Error; err != nil {
			return err
		}

		// Re-read to learn the surviving row id when the upsert hit a conflict
		if err := tx.Where("creator_id = ? AND platform = ?", account.CreatorID, account.Platform).
			First(&linked).Error; err != nil {
			return err
		}

		credential.AccountID = linked.ID
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token_enc", "refresh_token_enc", "expires_at", "updated_at",
			}),
		}).Create(credential).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &linked, nil
}

// GetByID retrieves an account regardless of its active flag
func (r *socialAccountRepository) GetByID(id string) (*models.SocialAccount, error) {
	var account models.SocialAccount
	if err := r.db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetActiveByID retrieves an account only when it is still connected
func (r *socialAccountRepository) GetActiveByID(id string) (*models.SocialAccount, error) {
	var account models.SocialAccount
	if err := r.db.Where("id = ? AND is_active = ?", id, true).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *socialAccountRepository) GetByCreatorAndPlatform(creatorID uint, platform string) (*models.SocialAccount, error) {
	var account models.SocialAccount
	if err := r.db.Where("creator_id = ? AND platform = ?", creatorID, platform).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ListActiveByCreator returns connected accounts without touching credentials
func (r *socialAccountRepository) ListActiveByCreator(creatorID uint) ([]models.SocialAccount, error) {
	var accounts []models.SocialAccount
	err := r.db.Where("creator_id = ? AND is_active = ?", creatorID, true).
		Order("connected_at DESC").Find(&accounts).Error
	return accounts, err
}

// Disconnect soft-disables the account and hard-deletes its credential so
// secrets never linger past the link lifetime.
func (r *socialAccountRepository) Disconnect(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SocialAccount{}).Where("id = ?", id).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("account_id = ?", id).Delete(&models.SocialCredential{}).Error
	})
}

func (r *socialAccountRepository) UpdateLastSynced(id string, at time.Time) error {
	return r.db.Model(&models.SocialAccount{}).Where("id = ?", id).
		Update("last_synced_at", at).Error
}

func (r *socialAccountRepository) UpdateProfileImageURL(id string, url string) error {
	return r.db.Model(&models.SocialAccount{}).Where("id = ?", id).
		Update("profile_image_url", url).Error
}
