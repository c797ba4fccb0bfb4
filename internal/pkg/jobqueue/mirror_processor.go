package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/subamericanetwork/nx8up/app/repository"
)

const mirrorTimeout = 30 * time.Second

// AvatarMirrorer copies one remote avatar into our storage and returns the
// mirrored public URL.
type AvatarMirrorer interface {
	MirrorProfileImage(ctx context.Context, accountID, sourceURL string) (string, error)
}

// AvatarMirrorProcessor mirrors provider avatars off the platform CDN and
// persists the mirrored URL on the account, so dashboards serve our copy.
type AvatarMirrorProcessor struct {
	accounts repository.SocialAccountRepository
	mirror   AvatarMirrorer
}

func NewAvatarMirrorProcessor(accounts repository.SocialAccountRepository, mirror AvatarMirrorer) *AvatarMirrorProcessor {
	return &AvatarMirrorProcessor{accounts: accounts, mirror: mirror}
}

func (p *AvatarMirrorProcessor) CanProcess(t JobType) bool {
	return t == JobTypeMirrorAvatar
}

func (p *AvatarMirrorProcessor) Process(ctx context.Context, job *Job) error {
	accountID := job.Payload["account_id"]
	if accountID == "" {
		log.Errorf("[JobQueue] mirror job %s has no account_id, dropping", job.ID)
		return nil
	}

	account, err := p.accounts.GetActiveByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Disconnected before the job ran, nothing to mirror anymore
			return nil
		}
		return fmt.Errorf("mirror avatar for account %s: %w", accountID, err)
	}
	if account.ProfileImageURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	mirrored, err := p.mirror.MirrorProfileImage(ctx, account.ID, account.ProfileImageURL)
	if err != nil {
		return fmt.Errorf("mirror avatar for account %s: %w", accountID, err)
	}
	if err := p.accounts.UpdateProfileImageURL(account.ID, mirrored); err != nil {
		return fmt.Errorf("store mirrored avatar for account %s: %w", accountID, err)
	}
	log.Infof("[JobQueue] mirrored avatar for account %s", accountID)
	return nil
}
