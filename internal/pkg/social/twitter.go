package social

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
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
	defaultTwitterAuthorizeURL = "https://twitter.com/i/oauth2/authorize"
	defaultTwitterTokenURL     = "https://api.twitter.com/2/oauth2/token"
	defaultTwitterAPIBaseURL   = "https://api.twitter.com/2"

	twitterScopes = "tweet.read users.read offline.access"

	twitterSampleSize = 50
)

// TwitterClient talks to the Twitter API v2. OAuth2 here mandates PKCE, so
// the broker-issued verifier is used for both legs of the flow.
type TwitterClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthorizeEndpoint string
	TokenURL          string
	APIBaseURL        string

	HTTPClient *http.Client
}

func NewTwitterClientFromEnv() (*TwitterClient, error) {
	clientID := strings.TrimSpace(env.GetEnv("TWITTER_CLIENT_ID", ""))
	if clientID == "" {
		return nil, &ConfigurationError{Platform: models.PlatformTwitter, Missing: "TWITTER_CLIENT_ID"}
	}
	return &TwitterClient{
		ClientID:          clientID,
		ClientSecret:      strings.TrimSpace(env.GetEnv("TWITTER_CLIENT_SECRET", "")),
		RedirectURI:       RedirectURI(),
		AuthorizeEndpoint: env.GetEnv("TWITTER_AUTHORIZE_URL", defaultTwitterAuthorizeURL),
		TokenURL:          env.GetEnv("TWITTER_TOKEN_URL", defaultTwitterTokenURL),
		APIBaseURL:        env.GetEnv("TWITTER_API_BASE_URL", defaultTwitterAPIBaseURL),
		HTTPClient:        newHTTPClient(),
	}, nil
}

func (c *TwitterClient) Platform() string { return models.PlatformTwitter }

func (c *TwitterClient) AuthorizeURL(state, verifier string) (string, error) {
	sum := sha256.Sum256([]byte(verifier))
	extra := url.Values{}
	extra.Set("code_challenge", base64.RawURLEncoding.EncodeToString(sum[:]))
	extra.Set("code_challenge_method", "S256")
	return buildAuthorizeURL(c.AuthorizeEndpoint, c.ClientID, c.RedirectURI, twitterScopes, state, extra)
}

func (c *TwitterClient) ExchangeCode(ctx context.Context, code, verifier string) (*Token, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &TokenExchangeError{Platform: c.Platform(), Body: "authorization code is required"}
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", strings.TrimSpace(code))
	form.Set("client_id", c.ClientID)
	form.Set("redirect_uri", c.RedirectURI)
	form.Set("code_verifier", verifier)

	// Confidential clients authenticate with basic auth on the token endpoint
	header := http.Header{}
	if c.ClientSecret != "" {
		basic := base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
		header.Set("Authorization", "Basic "+basic)
	}
	return exchangeCode(ctx, c.HTTPClient, c.Platform(), c.TokenURL, form, header)
}

type twitterMe struct {
	Data struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
		PublicMetrics   struct {
			FollowersCount int64 `json:"followers_count"`
			FollowingCount int64 `json:"following_count"`
			TweetCount     int64 `json:"tweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

func (c *TwitterClient) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	var me twitterMe
	u := c.APIBaseURL + "/users/me?user.fields=profile_image_url"
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &me); err != nil {
		return nil, err
	}
	if me.Data.ID == "" {
		return nil, &IdentityFetchError{Platform: c.Platform(), Reason: "no Twitter profile for this account"}
	}
	return &Identity{
		PlatformUserID:  me.Data.ID,
		Username:        me.Data.Username,
		DisplayName:     me.Data.Name,
		ProfileImageURL: me.Data.ProfileImageURL,
	}, nil
}

func (c *TwitterClient) FetchStats(ctx context.Context, accessToken string) (*Metrics, error) {
	var me twitterMe
	u := c.APIBaseURL + "/users/me?user.fields=public_metrics"
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &me); err != nil {
		return nil, err
	}
	if me.Data.ID == "" {
		return nil, &IdentityFetchError{Platform: c.Platform(), Reason: "no Twitter profile for this account"}
	}
	pm := me.Data.PublicMetrics

	sample, err := c.fetchTweetSample(ctx, accessToken, me.Data.ID)
	if err != nil {
		var expired *CredentialExpiredError
		if errors.As(err, &expired) {
			return nil, err
		}
		sample = videoSample{}
	}

	avgLikes := int64(0)
	avgComments := int64(0)
	rate := 0.0
	if sample.count > 0 {
		avgLikes = sample.likes / sample.count
		avgComments = sample.comments / sample.count
		if sample.views > 0 {
			rate = float64(sample.likes+sample.comments) / float64(sample.views) * 100
		} else if pm.FollowersCount > 0 {
			rate = float64(avgLikes+avgComments) / float64(pm.FollowersCount) * 100
		}
	}

	return &Metrics{
		FollowersCount:     pm.FollowersCount,
		FollowingCount:     pm.FollowingCount,
		PostsCount:         pm.TweetCount,
		LikesCount:         sample.likes,
		ViewsCount:         sample.views,
		EngagementRate:     ClampRate(math.Round(rate*100) / 100),
		AvgLikesPerPost:    avgLikes,
		AvgCommentsPerPost: avgComments,
	}, nil
}

func (c *TwitterClient) fetchTweetSample(ctx context.Context, accessToken, userID string) (videoSample, error) {
	var tweets struct {
		Data []struct {
			PublicMetrics struct {
				LikeCount       int64 `json:"like_count"`
				ReplyCount      int64 `json:"reply_count"`
				ImpressionCount int64 `json:"impression_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	u := fmt.Sprintf("%s/users/%s/tweets?max_results=%d&tweet.fields=public_metrics",
		c.APIBaseURL, url.PathEscape(userID), twitterSampleSize)
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &tweets); err != nil {
		return videoSample{}, err
	}

	var sample videoSample
	for _, t := range tweets.Data {
		sample.likes += t.PublicMetrics.LikeCount
		sample.comments += t.PublicMetrics.ReplyCount
		sample.views += t.PublicMetrics.ImpressionCount
		sample.count++
	}
	return sample, nil
}
