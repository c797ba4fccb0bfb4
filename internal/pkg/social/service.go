package social

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/app/repository"
	"github.com/subamericanetwork/nx8up/internal/pkg/secrets"
)

// Callback stage identifiers reported in error responses and completion
// records. Diagnostic, not a stable public contract.
const (
	StepState    = "state"
	StepExchange = "exchange"
	StepIdentity = "identity"
	StepCaller   = "caller"
	StepPersist  = "persist"
	StepSync     = "sync"
)

// Service orchestrates account linking and stats synchronization.
type Service struct {
	accounts repository.SocialAccountRepository
	creds    repository.SocialCredentialRepository
	stats    repository.SocialStatRepository
	vault    *secrets.Vault
	states   StateBroker
	clients  ClientFactory

	// enqueueSync triggers the initial stats pull after a connect. Best
	// effort: errors are logged, never returned.
	enqueueSync func(accountID string) error

	// onConnected runs after a successful link (avatar mirroring). Optional.
	onConnected func(account *models.SocialAccount)

	now func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithClientFactory(f ClientFactory) Option {
	return func(s *Service) { s.clients = f }
}

func WithSyncTrigger(f func(accountID string) error) Option {
	return func(s *Service) { s.enqueueSync = f }
}

func WithConnectedHook(f func(account *models.SocialAccount)) Option {
	return func(s *Service) { s.onConnected = f }
}

func WithClock(f func() time.Time) Option {
	return func(s *Service) { s.now = f }
}

// NewService wires the social core from its collaborators.
func NewService(
	repos *repository.Repositories,
	vault *secrets.Vault,
	states StateBroker,
	opts ...Option,
) *Service {
	s := &Service{
		accounts: repos.SocialAccount,
		creds:    repos.SocialCredential,
		stats:    repos.SocialStat,
		vault:    vault,
		states:   states,
		clients:  NewClientFromEnv,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompleteConnect finishes the provider handshake. Steps run strictly in
// order and any failure is terminal for the request; the authorization code
// is single-use, so nothing here retries.
func (s *Service) CompleteConnect(ctx context.Context, creatorID uint, platform, code, state string) (*models.SocialAccount, error) {
	// Caller resolution comes from the authenticated session only. No
	// fallback guessing; fail closed.
	if creatorID == 0 {
		return nil, ErrUnauthorized
	}

	nonce, statePlatform, err := ParseState(state)
	if err != nil {
		return nil, err
	}
	if platform == "" {
		platform = statePlatform
	}
	if platform != statePlatform {
		return nil, &StateError{Reason: "state platform mismatch"}
	}

	rec, err := s.states.Consume(ctx, nonce)
	if err != nil {
		return nil, err
	}
	if rec.CreatorID != creatorID {
		return nil, &StateError{Reason: "state was issued to a different user"}
	}
	if rec.Platform != platform {
		return nil, &StateError{Reason: "state platform mismatch"}
	}

	client, err := s.clients(platform)
	if err != nil {
		return nil, err
	}

	token, err := client.ExchangeCode(ctx, code, rec.Verifier)
	if err != nil {
		return nil, err
	}

	identity, err := client.FetchIdentity(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	accessEnc, err := s.vault.Seal(token.AccessToken)
	if err != nil {
		return nil, err
	}
	refreshEnc, err := s.vault.Seal(token.RefreshToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := token.ExpiresAt(now)
	account := &models.SocialAccount{
		ID:              uuid.NewString(),
		CreatorID:       creatorID,
		Platform:        platform,
		PlatformUserID:  identity.PlatformUserID,
		Username:        identity.Username,
		DisplayName:     identity.DisplayName,
		ProfileImageURL: identity.ProfileImageURL,
		IsActive:        true,
		ConnectedAt:     now,
		TokenExpiresAt:  expiresAt,
	}
	credential := &models.SocialCredential{
		AccessTokenEnc:  accessEnc,
		RefreshTokenEnc: refreshEnc,
		ExpiresAt:       expiresAt,
	}

	// Account and credential land in one transaction; an account is never
	// visible as connected without a usable credential.
	linked, err := s.accounts.Link(account, credential)
	if err != nil {
		return nil, err
	}

	if s.onConnected != nil {
		s.onConnected(linked)
	}

	// Initial sync is fire-and-forget; its failure never fails the connect.
	if s.enqueueSync != nil {
		if err := s.enqueueSync(linked.ID); err != nil {
			log.Warnf("[Social] initial sync enqueue failed for account %s: %v", linked.ID, err)
		}
	}

	return linked, nil
}

// GetOwnedAccount returns the active account when the caller owns it. Foreign
// and unknown accounts are indistinguishable to the caller.
func (s *Service) GetOwnedAccount(ctx context.Context, creatorID uint, accountID string) (*models.SocialAccount, error) {
	_ = ctx
	account, err := s.accounts.GetActiveByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if account.CreatorID != creatorID {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// Disconnect soft-disables the account and destroys its credential. Only the
// owning creator may disconnect.
func (s *Service) Disconnect(ctx context.Context, creatorID uint, accountID string) error {
	if _, err := s.GetOwnedAccount(ctx, creatorID, accountID); err != nil {
		return err
	}
	return s.accounts.Disconnect(accountID)
}

// ListAccounts returns the creator's connected accounts, credentials never
// included.
func (s *Service) ListAccounts(ctx context.Context, creatorID uint) ([]models.SocialAccount, error) {
	_ = ctx
	return s.accounts.ListActiveByCreator(creatorID)
}

// LatestStats returns the newest snapshot for an owned account.
func (s *Service) LatestStats(ctx context.Context, creatorID uint, accountID string) (*models.SocialStat, error) {
	if _, err := s.GetOwnedAccount(ctx, creatorID, accountID); err != nil {
		return nil, err
	}
	stat, err := s.stats.LatestByAccount(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return stat, nil
}

// StepForError maps a connect failure to the callback stage it belongs to.
func StepForError(err error) string {
	var (
		stateErr    *StateError
		exchangeErr *TokenExchangeError
		identityErr *IdentityFetchError
		configErr   *ConfigurationError
	)
	switch {
	case errors.Is(err, ErrUnauthorized):
		return StepCaller
	case errors.As(err, &stateErr):
		return StepState
	case errors.As(err, &configErr):
		return StepState
	case errors.As(err, &exchangeErr):
		return StepExchange
	case errors.As(err, &identityErr):
		return StepIdentity
	default:
		return StepPersist
	}
}
