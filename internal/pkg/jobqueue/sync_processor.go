package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/subamericanetwork/nx8up/internal/pkg/social"
)

// StatsSyncProcessor runs stats synchronization jobs.
type StatsSyncProcessor struct {
	service *social.Service
}

func NewStatsSyncProcessor(service *social.Service) *StatsSyncProcessor {
	return &StatsSyncProcessor{service: service}
}

func (p *StatsSyncProcessor) CanProcess(t JobType) bool {
	return t == JobTypeSyncStats
}

func (p *StatsSyncProcessor) Process(ctx context.Context, job *Job) error {
	accountID := job.Payload["account_id"]
	if accountID == "" {
		// Drop malformed jobs instead of retrying them forever
		log.Errorf("[JobQueue] sync job %s has no account_id, dropping", job.ID)
		return nil
	}

	stat, err := p.service.SyncStats(ctx, accountID)
	if err != nil {
		// Only transient provider failures are worth a retry; credential and
		// account errors need user action, not another attempt.
		var unavailable *social.ProviderUnavailableError
		if errors.As(err, &unavailable) {
			return fmt.Errorf("sync stats for account %s: %w", accountID, err)
		}
		log.Warnf("[JobQueue] sync for account %s failed terminally: %v", accountID, err)
		return nil
	}
	log.Infof("[JobQueue] synced stats for account %s (followers=%d)", accountID, stat.FollowersCount)
	return nil
}
