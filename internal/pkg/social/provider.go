package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/internal/pkg/env"
)

// Token is the provider's response to an authorization-code exchange.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// ExpiresAt converts ExpiresIn to an absolute timestamp, nil when the
// provider did not report a lifetime.
func (t *Token) ExpiresAt(now time.Time) *time.Time {
	if t.ExpiresIn <= 0 {
		return nil
	}
	at := now.Add(time.Duration(t.ExpiresIn) * time.Second)
	return &at
}

// Identity is the platform-side identity of the authenticated account.
type Identity struct {
	PlatformUserID  string
	Username        string
	DisplayName     string
	ProfileImageURL string
}

// Metrics is one platform engagement measurement.
type Metrics struct {
	FollowersCount     int64
	FollowingCount     int64
	PostsCount         int64
	LikesCount         int64
	ViewsCount         int64
	EngagementRate     float64
	AvgLikesPerPost    int64
	AvgCommentsPerPost int64
}

// Client is one platform integration. Adding a platform means adding a new
// implementation, not branching deeper into existing ones.
// The PKCE verifier is generated by the broker and round-tripped through the
// state store; clients whose provider does not use PKCE ignore it.
type Client interface {
	Platform() string
	AuthorizeURL(state, verifier string) (string, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*Token, error)
	FetchIdentity(ctx context.Context, accessToken string) (*Identity, error)
	FetchStats(ctx context.Context, accessToken string) (*Metrics, error)
}

// ClientFactory builds a Client for a platform. Swappable in tests.
type ClientFactory func(platform string) (Client, error)

// NewClientFromEnv is the default factory; it fails with ConfigurationError
// when the platform is unknown or its credentials are not configured.
func NewClientFromEnv(platform string) (Client, error) {
	switch platform {
	case models.PlatformYouTube:
		return NewYouTubeClientFromEnv()
	case models.PlatformInstagram:
		return NewInstagramClientFromEnv()
	case models.PlatformTikTok:
		return NewTikTokClientFromEnv()
	case models.PlatformTwitter:
		return NewTwitterClientFromEnv()
	default:
		return nil, &ConfigurationError{Platform: platform, Missing: "supported platform"}
	}
}

// RedirectURI returns the single, pre-registered callback URL shared by all
// platforms. It must match the provider console registration exactly, so it
// is configuration, never a per-request value.
func RedirectURI() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base + "/social/callback"
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// buildAuthorizeURL assembles the provider authorization URL with the common
// code-grant parameters.
func buildAuthorizeURL(endpoint, clientID, redirectURI, scope, state string, extra url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("social: invalid authorize endpoint: %w", err)
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	if scope != "" {
		q.Set("scope", scope)
	}
	q.Set("state", state)
	for k, vs := range extra {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// exchangeCode posts the authorization-code grant and decodes the token
// response. Provider 5xx and transport failures are retriable; anything else
// is a terminal TokenExchangeError because codes are single-use.
func exchangeCode(ctx context.Context, hc *http.Client, platform, tokenURL string, form url.Values, header http.Header) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &ProviderUnavailableError{Platform: platform, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 500 {
		return nil, &ProviderUnavailableError{
			Platform: platform,
			Err:      fmt.Errorf("token endpoint status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TokenExchangeError{Platform: platform, Status: resp.StatusCode, Body: string(body)}
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TokenExchangeError{Platform: platform, Status: resp.StatusCode, Body: "unparseable token response"}
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, &TokenExchangeError{Platform: platform, Status: resp.StatusCode, Body: "empty access_token"}
	}
	return &Token{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
	}, nil
}

// getJSON performs a bearer-authenticated read. 401-class responses become
// CredentialExpiredError so callers can prompt reconnection instead of
// blindly retrying.
func getJSON(ctx context.Context, hc *http.Client, platform, rawURL, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return &ProviderUnavailableError{Platform: platform, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &CredentialExpiredError{Platform: platform}
	case resp.StatusCode >= 500:
		return &ProviderUnavailableError{
			Platform: platform,
			Err:      fmt.Errorf("status %d from %s", resp.StatusCode, rawURL),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("social: %s api error: status=%d body=%s", platform, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("social: %s api returned invalid json: %w", platform, err)
	}
	return nil
}
