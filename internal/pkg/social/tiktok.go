package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/internal/pkg/env"
)

const (
	defaultTikTokAuthorizeURL = "https://www.tiktok.com/v2/auth/authorize/"
	defaultTikTokTokenURL     = "https://open.tiktokapis.com/v2/oauth/token/"
	defaultTikTokAPIBaseURL   = "https://open.tiktokapis.com/v2"

	tiktokScopes = "user.info.basic,user.info.stats,video.list"

	tiktokSampleSize = 20
)

// TikTokClient talks to the TikTok Open API. TikTok names its application
// credential "client_key" instead of "client_id".
type TikTokClient struct {
	ClientKey    string
	ClientSecret string
	RedirectURI  string

	AuthorizeEndpoint string
	TokenURL          string
	APIBaseURL        string

	HTTPClient *http.Client
}

func NewTikTokClientFromEnv() (*TikTokClient, error) {
	clientKey := strings.TrimSpace(env.GetEnv("TIKTOK_CLIENT_ID", env.GetEnv("TIKTOK_CLIENT_KEY", "")))
	if clientKey == "" {
		return nil, &ConfigurationError{Platform: models.PlatformTikTok, Missing: "TIKTOK_CLIENT_ID"}
	}
	return &TikTokClient{
		ClientKey:         clientKey,
		ClientSecret:      strings.TrimSpace(env.GetEnv("TIKTOK_CLIENT_SECRET", "")),
		RedirectURI:       RedirectURI(),
		AuthorizeEndpoint: env.GetEnv("TIKTOK_AUTHORIZE_URL", defaultTikTokAuthorizeURL),
		TokenURL:          env.GetEnv("TIKTOK_TOKEN_URL", defaultTikTokTokenURL),
		APIBaseURL:        env.GetEnv("TIKTOK_API_BASE_URL", defaultTikTokAPIBaseURL),
		HTTPClient:        newHTTPClient(),
	}, nil
}

func (c *TikTokClient) Platform() string { return models.PlatformTikTok }

func (c *TikTokClient) AuthorizeURL(state, _ string) (string, error) {
	u, err := url.Parse(c.AuthorizeEndpoint)
	if err != nil {
		return "", fmt.Errorf("social: invalid authorize endpoint: %w", err)
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_key", c.ClientKey)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("scope", tiktokScopes)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *TikTokClient) ExchangeCode(ctx context.Context, code, _ string) (*Token, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &TokenExchangeError{Platform: c.Platform(), Body: "authorization code is required"}
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", strings.TrimSpace(code))
	form.Set("client_key", c.ClientKey)
	form.Set("client_secret", c.ClientSecret)
	form.Set("redirect_uri", c.RedirectURI)
	return exchangeCode(ctx, c.HTTPClient, c.Platform(), c.TokenURL, form, nil)
}

type tiktokUserInfo struct {
	Data struct {
		User struct {
			OpenID         string `json:"open_id"`
			Username       string `json:"username"`
			DisplayName    string `json:"display_name"`
			AvatarURL      string `json:"avatar_url"`
			FollowerCount  int64  `json:"follower_count"`
			FollowingCount int64  `json:"following_count"`
			LikesCount     int64  `json:"likes_count"`
			VideoCount     int64  `json:"video_count"`
		} `json:"user"`
	} `json:"data"`
}

func (c *TikTokClient) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	var info tiktokUserInfo
	u := c.APIBaseURL + "/user/info/?fields=open_id,username,display_name,avatar_url"
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &info); err != nil {
		return nil, err
	}
	user := info.Data.User
	if user.OpenID == "" {
		return nil, &IdentityFetchError{Platform: c.Platform(), Reason: "no TikTok profile for this account"}
	}
	return &Identity{
		PlatformUserID:  user.OpenID,
		Username:        user.Username,
		DisplayName:     user.DisplayName,
		ProfileImageURL: user.AvatarURL,
	}, nil
}

func (c *TikTokClient) FetchStats(ctx context.Context, accessToken string) (*Metrics, error) {
	var info tiktokUserInfo
	u := c.APIBaseURL + "/user/info/?fields=open_id,follower_count,following_count,likes_count,video_count"
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &info); err != nil {
		return nil, err
	}
	user := info.Data.User
	if user.OpenID == "" {
		return nil, &IdentityFetchError{Platform: c.Platform(), Reason: "no TikTok profile for this account"}
	}

	sample, err := c.fetchVideoSample(ctx, accessToken)
	if err != nil {
		var expired *CredentialExpiredError
		if errors.As(err, &expired) {
			return nil, err
		}
		sample = videoSample{}
	}

	sampled := int64(0)
	if sample.count > 0 {
		sampled = sample.count
	}
	avgLikes := int64(0)
	avgComments := int64(0)
	rate := 0.0
	if sampled > 0 {
		avgLikes = sample.likes / sampled
		avgComments = sample.comments / sampled
		if sample.views > 0 {
			rate = float64(sample.likes+sample.comments) / float64(sample.views) * 100
		} else if user.FollowerCount > 0 {
			rate = float64(avgLikes+avgComments) / float64(user.FollowerCount) * 100
		}
	}

	return &Metrics{
		FollowersCount:     user.FollowerCount,
		FollowingCount:     user.FollowingCount,
		PostsCount:         user.VideoCount,
		LikesCount:         user.LikesCount,
		ViewsCount:         sample.views,
		EngagementRate:     ClampRate(math.Round(rate*100) / 100),
		AvgLikesPerPost:    avgLikes,
		AvgCommentsPerPost: avgComments,
	}, nil
}

func (c *TikTokClient) fetchVideoSample(ctx context.Context, accessToken string) (videoSample, error) {
	payload, _ := json.Marshal(map[string]int{"max_count": tiktokSampleSize})
	u := c.APIBaseURL + "/video/list/?fields=like_count,comment_count,view_count"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return videoSample{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return videoSample{}, &ProviderUnavailableError{Platform: c.Platform(), Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return videoSample{}, &CredentialExpiredError{Platform: c.Platform()}
	case resp.StatusCode >= 500:
		return videoSample{}, &ProviderUnavailableError{
			Platform: c.Platform(),
			Err:      fmt.Errorf("status %d from video list", resp.StatusCode),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return videoSample{}, fmt.Errorf("social: tiktok video list error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var list struct {
		Data struct {
			Videos []struct {
				LikeCount    int64 `json:"like_count"`
				CommentCount int64 `json:"comment_count"`
				ViewCount    int64 `json:"view_count"`
			} `json:"videos"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return videoSample{}, fmt.Errorf("social: tiktok video list returned invalid json: %w", err)
	}

	var sample videoSample
	for _, v := range list.Data.Videos {
		sample.likes += v.LikeCount
		sample.comments += v.CommentCount
		sample.views += v.ViewCount
		sample.count++
	}
	return sample, nil
}
