package social

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/subamericanetwork/nx8up/app/models"
)

// SyncStats pulls fresh engagement metrics for a connected account and
// appends exactly one immutable snapshot. A failed sync writes nothing, so
// failure leaves no trace; a successful sync is a time-series append, never
// an update.
func (s *Service) SyncStats(ctx context.Context, accountID string) (*models.SocialStat, error) {
	account, err := s.accounts.GetActiveByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	// Tokens are reachable only through the dedicated credential accessor.
	credential, err := s.creds.GetByAccountID(account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialMissing
		}
		return nil, err
	}
	accessToken, err := s.vault.Open(credential.AccessTokenEnc)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, ErrCredentialMissing
	}

	client, err := s.clients(account.Platform)
	if err != nil {
		return nil, err
	}

	metrics, err := client.FetchStats(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stat := &models.SocialStat{
		AccountID:          account.ID,
		FollowersCount:     metrics.FollowersCount,
		FollowingCount:     metrics.FollowingCount,
		PostsCount:         metrics.PostsCount,
		LikesCount:         metrics.LikesCount,
		ViewsCount:         metrics.ViewsCount,
		EngagementRate:     ClampRate(metrics.EngagementRate),
		AvgLikesPerPost:    metrics.AvgLikesPerPost,
		AvgCommentsPerPost: metrics.AvgCommentsPerPost,
		RecordedAt:         now,
	}
	if err := s.stats.Append(stat); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateLastSynced(account.ID, now); err != nil {
		return nil, err
	}
	return stat, nil
}

// ClampRate bounds an engagement percentage to [0, 100] before storage.
func ClampRate(rate float64) float64 {
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}
