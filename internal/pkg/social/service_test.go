package social

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/app/repository"
	"github.com/subamericanetwork/nx8up/internal/pkg/secrets"
)

// memoryStates is an in-memory StateBroker with consume-once semantics.
type memoryStates struct {
	mu      sync.Mutex
	records map[string]StateRecord
}

func newMemoryStates() *memoryStates {
	return &memoryStates{records: map[string]StateRecord{}}
}

func (m *memoryStates) Issue(_ context.Context, nonce string, rec StateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[nonce] = rec
	return nil
}

func (m *memoryStates) Consume(_ context.Context, nonce string) (*StateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[nonce]
	if !ok {
		return nil, &StateError{Reason: "unknown, expired or already used nonce"}
	}
	delete(m.records, nonce)
	return &rec, nil
}

type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[string]*models.SocialAccount
	creds    *memoryCredentials
}

func newMemoryAccounts(creds *memoryCredentials) *memoryAccounts {
	return &memoryAccounts{accounts: map[string]*models.SocialAccount{}, creds: creds}
}

func (m *memoryAccounts) Link(account *models.SocialAccount, credential *models.SocialCredential) (*models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.CreatorID == account.CreatorID && existing.Platform == account.Platform {
			account.ID = existing.ID
			break
		}
	}
	stored := *account
	m.accounts[account.ID] = &stored
	credential.AccountID = account.ID
	m.creds.put(credential)
	out := stored
	return &out, nil
}

func (m *memoryAccounts) GetByID(id string) (*models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		out := *a
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryAccounts) GetActiveByID(id string) (*models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok && a.IsActive {
		out := *a
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryAccounts) GetByCreatorAndPlatform(creatorID uint, platform string) (*models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.CreatorID == creatorID && a.Platform == platform {
			out := *a
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryAccounts) ListActiveByCreator(creatorID uint) ([]models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SocialAccount
	for _, a := range m.accounts {
		if a.CreatorID == creatorID && a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memoryAccounts) Disconnect(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.IsActive = false
	return m.creds.DeleteByAccountID(id)
}

func (m *memoryAccounts) UpdateLastSynced(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		a.LastSyncedAt = &at
	}
	return nil
}

func (m *memoryAccounts) UpdateProfileImageURL(id string, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.ProfileImageURL = url
	return nil
}

type memoryCredentials struct {
	mu    sync.Mutex
	creds map[string]*models.SocialCredential
}

func newMemoryCredentials() *memoryCredentials {
	return &memoryCredentials{creds: map[string]*models.SocialCredential{}}
}

func (m *memoryCredentials) put(c *models.SocialCredential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *c
	m.creds[c.AccountID] = &stored
}

func (m *memoryCredentials) GetByAccountID(accountID string) (*models.SocialCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.creds[accountID]; ok {
		out := *c
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryCredentials) DeleteByAccountID(accountID string) error {
	delete(m.creds, accountID)
	return nil
}

type memoryStats struct {
	mu    sync.Mutex
	stats []models.SocialStat
}

func (m *memoryStats) Append(stat *models.SocialStat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = append(m.stats, *stat)
	return nil
}

func (m *memoryStats) LatestByAccount(accountID string) (*models.SocialStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.stats) - 1; i >= 0; i-- {
		if m.stats[i].AccountID == accountID {
			out := m.stats[i]
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryStats) ListByAccount(accountID string, limit int) ([]models.SocialStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SocialStat
	for i := len(m.stats) - 1; i >= 0 && len(out) < limit; i-- {
		if m.stats[i].AccountID == accountID {
			out = append(out, m.stats[i])
		}
	}
	return out, nil
}

// fakeClient is a scripted platform integration.
type fakeClient struct {
	platform    string
	token       *Token
	exchangeErr error
	identity    *Identity
	identityErr error
	metrics     *Metrics
	statsErr    error

	gotVerifier string
}

func (f *fakeClient) Platform() string { return f.platform }

func (f *fakeClient) AuthorizeURL(state, _ string) (string, error) {
	return "https://provider.example/authorize?state=" + state, nil
}

func (f *fakeClient) ExchangeCode(_ context.Context, code, verifier string) (*Token, error) {
	f.gotVerifier = verifier
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeClient) FetchIdentity(_ context.Context, _ string) (*Identity, error) {
	if f.identityErr != nil {
		return nil, f.identityErr
	}
	return f.identity, nil
}

func (f *fakeClient) FetchStats(_ context.Context, _ string) (*Metrics, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.metrics, nil
}

type testEnv struct {
	service  *Service
	states   *memoryStates
	accounts *memoryAccounts
	creds    *memoryCredentials
	stats    *memoryStats
	vault    *secrets.Vault
	client   *fakeClient
	synced   []string
}

func newTestEnv(t *testing.T, client *fakeClient) *testEnv {
	t.Helper()
	vault, err := secrets.NewVault("unit-test-passphrase")
	require.NoError(t, err)

	creds := newMemoryCredentials()
	e := &testEnv{
		states:   newMemoryStates(),
		accounts: newMemoryAccounts(creds),
		creds:    creds,
		stats:    &memoryStats{},
		vault:    vault,
		client:   client,
	}
	repos := &repository.Repositories{
		SocialAccount:    e.accounts,
		SocialCredential: e.creds,
		SocialStat:       e.stats,
	}
	e.service = NewService(repos, vault, e.states,
		WithClientFactory(func(platform string) (Client, error) {
			if client != nil && platform == client.platform {
				return client, nil
			}
			return nil, &ConfigurationError{Platform: platform, Missing: "client credentials"}
		}),
		WithSyncTrigger(func(accountID string) error {
			e.synced = append(e.synced, accountID)
			return nil
		}),
		WithClock(func() time.Time {
			return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		}),
	)
	return e
}

func defaultYouTubeFake() *fakeClient {
	return &fakeClient{
		platform: models.PlatformYouTube,
		token:    &Token{AccessToken: "at-123", RefreshToken: "rt-456", ExpiresIn: 3600},
		identity: &Identity{
			PlatformUserID:  "UC123",
			Username:        "coolcreator",
			DisplayName:     "Cool Creator",
			ProfileImageURL: "https://img.example/avatar.jpg",
		},
	}
}

func TestCompleteConnect_Success(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)

	account, err := e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code", begin.State)
	require.NoError(t, err)

	assert.Equal(t, uint(7), account.CreatorID)
	assert.Equal(t, models.PlatformYouTube, account.Platform)
	assert.Equal(t, "UC123", account.PlatformUserID)
	assert.Equal(t, "coolcreator", account.Username)
	assert.True(t, account.IsActive)
	require.NotNil(t, account.TokenExpiresAt)
	assert.Equal(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), account.TokenExpiresAt.UTC())

	// tokens are stored sealed, never in the clear
	cred, err := e.creds.GetByAccountID(account.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "at-123", cred.AccessTokenEnc)
	opened, err := e.vault.Open(cred.AccessTokenEnc)
	require.NoError(t, err)
	assert.Equal(t, "at-123", opened)

	// the initial sync was triggered for the new account
	require.Len(t, e.synced, 1)
	assert.Equal(t, account.ID, e.synced[0])
}

func TestCompleteConnect_FailsClosedWithoutCaller(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)

	_, err = e.service.CompleteConnect(ctx, 0, models.PlatformYouTube, "auth-code", begin.State)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCompleteConnect_StateIsSingleUse(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)

	_, err = e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code", begin.State)
	require.NoError(t, err)

	_, err = e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code", begin.State)
	var stateErr *StateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestCompleteConnect_RejectsForeignState(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)

	_, err = e.service.CompleteConnect(ctx, 8, models.PlatformYouTube, "auth-code", begin.State)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)

	// the nonce was burned by the failed attempt
	_, err = e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code", begin.State)
	assert.ErrorAs(t, err, &stateErr)
}

func TestCompleteConnect_PlatformMismatch(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)

	_, err = e.service.CompleteConnect(ctx, 7, models.PlatformTwitter, "auth-code", begin.State)
	var stateErr *StateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestCompleteConnect_IdentityFailurePersistsNothing(t *testing.T) {
	client := defaultYouTubeFake()
	client.identityErr = &IdentityFetchError{Platform: models.PlatformYouTube, Reason: "no YouTube channel for this account"}
	e := newTestEnv(t, client)
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)

	_, err = e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code", begin.State)
	var identityErr *IdentityFetchError
	require.ErrorAs(t, err, &identityErr)

	accounts, err := e.accounts.ListActiveByCreator(7)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.Empty(t, e.synced)
}

func TestCompleteConnect_RelinkKeepsAccountID(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)
	first, err := e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code", begin.State)
	require.NoError(t, err)

	begin, err = e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)
	second, err := e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code-2", begin.State)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	accounts, err := e.accounts.ListActiveByCreator(7)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestDisconnect(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)
	account, err := e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code", begin.State)
	require.NoError(t, err)

	// only the owner may disconnect
	err = e.service.Disconnect(ctx, 8, account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, e.service.Disconnect(ctx, 7, account.ID))

	// credential destroyed, account no longer listed
	_, err = e.creds.GetByAccountID(account.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	accounts, err := e.service.ListAccounts(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	// disconnecting again reports not found
	err = e.service.Disconnect(ctx, 7, account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetOwnedAccount(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)
	account, err := e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code", begin.State)
	require.NoError(t, err)

	got, err := e.service.GetOwnedAccount(ctx, 7, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	// foreign and unknown accounts look the same to the caller
	_, err = e.service.GetOwnedAccount(ctx, 8, account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = e.service.GetOwnedAccount(ctx, 7, "no-such-account")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// disconnected accounts are no longer owned
	require.NoError(t, e.service.Disconnect(ctx, 7, account.ID))
	_, err = e.service.GetOwnedAccount(ctx, 7, account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLatestStats(t *testing.T) {
	e := newTestEnv(t, defaultYouTubeFake())
	ctx := context.Background()

	begin, err := e.service.BeginConnect(ctx, 7, models.PlatformYouTube)
	require.NoError(t, err)
	account, err := e.service.CompleteConnect(ctx, 7, models.PlatformYouTube, "auth-code", begin.State)
	require.NoError(t, err)

	// no snapshot yet is not an error
	stat, err := e.service.LatestStats(ctx, 7, account.ID)
	require.NoError(t, err)
	assert.Nil(t, stat)

	require.NoError(t, e.stats.Append(&models.SocialStat{AccountID: account.ID, FollowersCount: 1000}))
	stat, err = e.service.LatestStats(ctx, 7, account.ID)
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(1000), stat.FollowersCount)

	// wrong owner sees nothing
	_, err = e.service.LatestStats(ctx, 8, account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
