package social

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/internal/pkg/env"
)

const (
	defaultInstagramAuthorizeURL = "https://api.instagram.com/oauth/authorize"
	defaultInstagramTokenURL     = "https://api.instagram.com/oauth/access_token"
	defaultInstagramAPIBaseURL   = "https://graph.instagram.com"

	instagramScopes = "user_profile,user_media"

	instagramSampleSize = 50
)

// InstagramClient talks to the Instagram Basic Display/Graph endpoints.
type InstagramClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthorizeEndpoint string
	TokenURL          string
	APIBaseURL        string

	HTTPClient *http.Client
}

func NewInstagramClientFromEnv() (*InstagramClient, error) {
	clientID := strings.TrimSpace(env.GetEnv("INSTAGRAM_CLIENT_ID", ""))
	if clientID == "" {
		return nil, &ConfigurationError{Platform: models.PlatformInstagram, Missing: "INSTAGRAM_CLIENT_ID"}
	}
	return &InstagramClient{
		ClientID:          clientID,
		ClientSecret:      strings.TrimSpace(env.GetEnv("INSTAGRAM_CLIENT_SECRET", "")),
		RedirectURI:       RedirectURI(),
		AuthorizeEndpoint: env.GetEnv("INSTAGRAM_AUTHORIZE_URL", defaultInstagramAuthorizeURL),
		TokenURL:          env.GetEnv("INSTAGRAM_TOKEN_URL", defaultInstagramTokenURL),
		APIBaseURL:        env.GetEnv("INSTAGRAM_API_BASE_URL", defaultInstagramAPIBaseURL),
		HTTPClient:        newHTTPClient(),
	}, nil
}

func (c *InstagramClient) Platform() string { return models.PlatformInstagram }

func (c *InstagramClient) AuthorizeURL(state, _ string) (string, error) {
	return buildAuthorizeURL(c.AuthorizeEndpoint, c.ClientID, c.RedirectURI, instagramScopes, state, nil)
}

func (c *InstagramClient) ExchangeCode(ctx context.Context, code, _ string) (*Token, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &TokenExchangeError{Platform: c.Platform(), Body: "authorization code is required"}
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", strings.TrimSpace(code))
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("redirect_uri", c.RedirectURI)
	return exchangeCode(ctx, c.HTTPClient, c.Platform(), c.TokenURL, form, nil)
}

func (c *InstagramClient) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	var me struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	u := c.APIBaseURL + "/me?fields=id,username"
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &me); err != nil {
		return nil, err
	}
	if me.ID == "" {
		return nil, &IdentityFetchError{Platform: c.Platform(), Reason: "no Instagram profile for this account"}
	}
	return &Identity{
		PlatformUserID: me.ID,
		Username:       me.Username,
		DisplayName:    me.Username,
	}, nil
}

// FetchStats reads profile counters plus a recent-media sample. Engagement
// is the average per-post interactions relative to followers.
func (c *InstagramClient) FetchStats(ctx context.Context, accessToken string) (*Metrics, error) {
	var me struct {
		ID             string `json:"id"`
		Username       string `json:"username"`
		MediaCount     int64  `json:"media_count"`
		FollowersCount int64  `json:"followers_count"`
		FollowsCount   int64  `json:"follows_count"`
	}
	u := c.APIBaseURL + "/me?fields=id,username,media_count,followers_count,follows_count"
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &me); err != nil {
		return nil, err
	}

	var media struct {
		Data []struct {
			LikeCount     int64 `json:"like_count"`
			CommentsCount int64 `json:"comments_count"`
		} `json:"data"`
	}
	u = fmt.Sprintf("%s/me/media?fields=like_count,comments_count&limit=%d", c.APIBaseURL, instagramSampleSize)
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &media); err != nil {
		// Sample is best-effort except for expired credentials
		var expired *CredentialExpiredError
		if errors.As(err, &expired) {
			return nil, err
		}
		media.Data = nil
	}

	var likes, comments int64
	for _, m := range media.Data {
		likes += m.LikeCount
		comments += m.CommentsCount
	}

	sampled := int64(len(media.Data))
	avgLikes := int64(0)
	avgComments := int64(0)
	rate := 0.0
	if sampled > 0 {
		avgLikes = likes / sampled
		avgComments = comments / sampled
		if me.FollowersCount > 0 {
			rate = float64(avgLikes+avgComments) / float64(me.FollowersCount) * 100
		}
	}

	return &Metrics{
		FollowersCount:     me.FollowersCount,
		FollowingCount:     me.FollowsCount,
		PostsCount:         me.MediaCount,
		LikesCount:         likes,
		ViewsCount:         0, // not exposed by the profile API
		EngagementRate:     ClampRate(math.Round(rate*100) / 100),
		AvgLikesPerPost:    avgLikes,
		AvgCommentsPerPost: avgComments,
	}, nil
}
