package social

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/subamericanetwork/nx8up/app/models"
)

// BeginConnectResult carries what the client needs to start the provider
// round-trip.
type BeginConnectResult struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// BeginConnect builds the provider authorization URL for a creator. The
// state is "{nonce}|{platform}" so the shared callback URL can recover the
// platform; the nonce is persisted with a TTL and consumed exactly once.
func (s *Service) BeginConnect(ctx context.Context, creatorID uint, platform string) (*BeginConnectResult, error) {
	if creatorID == 0 {
		return nil, ErrUnauthorized
	}
	if !models.IsValidPlatform(platform) {
		return nil, &ConfigurationError{Platform: platform, Missing: "supported platform"}
	}

	client, err := s.clients(platform)
	if err != nil {
		return nil, err
	}

	nonce := uuid.NewString()
	verifier := newVerifier()
	if err := s.states.Issue(ctx, nonce, StateRecord{
		CreatorID: creatorID,
		Platform:  platform,
		Verifier:  verifier,
	}); err != nil {
		return nil, fmt.Errorf("social: could not persist oauth state: %w", err)
	}

	state := nonce + "|" + platform
	authURL, err := client.AuthorizeURL(state, verifier)
	if err != nil {
		return nil, err
	}
	return &BeginConnectResult{AuthorizationURL: authURL, State: state}, nil
}

// ParseState splits "{nonce}|{platform}" and checks the structural format.
func ParseState(state string) (nonce, platform string, err error) {
	parts := strings.SplitN(state, "|", 2)
	if len(parts) != 2 || parts[0] == "" || !models.IsValidPlatform(parts[1]) {
		return "", "", &StateError{Reason: "malformed state parameter"}
	}
	return parts[0], parts[1], nil
}

// newVerifier returns a PKCE code verifier (43 chars of URL-safe base64).
func newVerifier() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString() + uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
