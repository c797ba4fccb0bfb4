package social

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subamericanetwork/nx8up/app/models"
)

func connectedAccount(t *testing.T, e *testEnv) *models.SocialAccount {
	t.Helper()
	ctx := context.Background()
	begin, err := e.service.BeginConnect(ctx, 7, e.client.platform)
	require.NoError(t, err)
	account, err := e.service.CompleteConnect(ctx, 7, e.client.platform, "auth-code", begin.State)
	require.NoError(t, err)
	return account
}

func TestSyncStats_AppendsSnapshot(t *testing.T) {
	client := defaultYouTubeFake()
	client.metrics = &Metrics{
		FollowersCount:     1000,
		PostsCount:         10,
		LikesCount:         50,
		ViewsCount:         20000,
		EngagementRate:     5.5,
		AvgLikesPerPost:    5,
		AvgCommentsPerPost: 0,
	}
	e := newTestEnv(t, client)
	account := connectedAccount(t, e)

	stat, err := e.service.SyncStats(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, stat.AccountID)
	assert.Equal(t, int64(1000), stat.FollowersCount)
	assert.Equal(t, 5.5, stat.EngagementRate)
	assert.False(t, stat.RecordedAt.IsZero())

	// snapshots append, they never replace
	stat2, err := e.service.SyncStats(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Len(t, e.stats.stats, 2)
	assert.Equal(t, stat.AccountID, stat2.AccountID)

	// last_synced_at moved
	stored, err := e.accounts.GetActiveByID(account.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastSyncedAt)
}

func TestSyncStats_ClampsRate(t *testing.T) {
	client := defaultYouTubeFake()
	client.metrics = &Metrics{FollowersCount: 10, EngagementRate: 250}
	e := newTestEnv(t, client)
	account := connectedAccount(t, e)

	stat, err := e.service.SyncStats(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stat.EngagementRate)
}

func TestSyncStats_UnknownAccount(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())

	_, err := e.service.SyncStats(context.Background(), "no-such-account")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSyncStats_DisconnectedAccount(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	account := connectedAccount(t, e)
	require.NoError(t, e.service.Disconnect(context.Background(), 7, account.ID))

	_, err := e.service.SyncStats(context.Background(), account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSyncStats_MissingCredential(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	account := connectedAccount(t, e)
	require.NoError(t, e.creds.DeleteByAccountID(account.ID))

	_, err := e.service.SyncStats(context.Background(), account.ID)
	assert.ErrorIs(t, err, ErrCredentialMissing)
}

func TestSyncStats_FailureWritesNothing(t *testing.T) {
	client := defaultYouTubeFake()
	client.statsErr = &ProviderUnavailableError{Platform: models.PlatformYouTube, Err: errors.New("status 503")}
	e := newTestEnv(t, client)
	account := connectedAccount(t, e)

	_, err := e.service.SyncStats(context.Background(), account.ID)
	var unavailable *ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Empty(t, e.stats.stats)

	stored, err := e.accounts.GetActiveByID(account.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastSyncedAt)
}

func TestSyncStats_ExpiredCredentialSurfaces(t *testing.T) {
	client := defaultYouTubeFake()
	client.statsErr = &CredentialExpiredError{Platform: models.PlatformYouTube}
	e := newTestEnv(t, client)
	account := connectedAccount(t, e)

	_, err := e.service.SyncStats(context.Background(), account.ID)
	var expired *CredentialExpiredError
	assert.ErrorAs(t, err, &expired)
}

func TestClampRate(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: -3, want: 0},
		{in: 0, want: 0},
		{in: 5.5, want: 5.5},
		{in: 100, want: 100},
		{in: 250, want: 100},
	}
	for _, tt := range tests {
		if got := ClampRate(tt.in); got != tt.want {
			t.Fatalf("ClampRate(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
