package social

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/internal/pkg/env"
)

const (
	defaultYouTubeAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultYouTubeTokenURL     = "https://oauth2.googleapis.com/token"
	defaultYouTubeAPIBaseURL   = "https://www.googleapis.com/youtube/v3"
	defaultYouTubeAnalyticsURL = "https://youtubeanalytics.googleapis.com/v2"

	youtubeScopes = "https://www.googleapis.com/auth/youtube.readonly https://www.googleapis.com/auth/yt-analytics.readonly"

	// recent-video sample size used for engagement estimation
	youtubeSampleSize = 50
)

// YouTubeClient talks to Google's OAuth endpoints and the YouTube Data and
// Analytics APIs. Endpoint fields are overridable for tests.
type YouTubeClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthorizeEndpoint string
	TokenURL          string
	APIBaseURL        string
	AnalyticsBaseURL  string

	HTTPClient *http.Client
}

func NewYouTubeClientFromEnv() (*YouTubeClient, error) {
	clientID := strings.TrimSpace(env.GetEnv("YOUTUBE_CLIENT_ID", ""))
	if clientID == "" {
		return nil, &ConfigurationError{Platform: models.PlatformYouTube, Missing: "YOUTUBE_CLIENT_ID"}
	}
	return &YouTubeClient{
		ClientID:          clientID,
		ClientSecret:      strings.TrimSpace(env.GetEnv("YOUTUBE_CLIENT_SECRET", "")),
		RedirectURI:       RedirectURI(),
		AuthorizeEndpoint: env.GetEnv("YOUTUBE_AUTHORIZE_URL", defaultYouTubeAuthorizeURL),
		TokenURL:          env.GetEnv("YOUTUBE_TOKEN_URL", defaultYouTubeTokenURL),
		APIBaseURL:        env.GetEnv("YOUTUBE_API_BASE_URL", defaultYouTubeAPIBaseURL),
		AnalyticsBaseURL:  env.GetEnv("YOUTUBE_ANALYTICS_BASE_URL", defaultYouTubeAnalyticsURL),
		HTTPClient:        newHTTPClient(),
	}, nil
}

func (c *YouTubeClient) Platform() string { return models.PlatformYouTube }

// AuthorizeURL requests offline access so Google returns a refresh token.
// Google does not require PKCE for confidential clients; the verifier is
// unused.
func (c *YouTubeClient) AuthorizeURL(state, _ string) (string, error) {
	extra := url.Values{}
	extra.Set("access_type", "offline")
	extra.Set("prompt", "consent")
	return buildAuthorizeURL(c.AuthorizeEndpoint, c.ClientID, c.RedirectURI, youtubeScopes, state, extra)
}

func (c *YouTubeClient) ExchangeCode(ctx context.Context, code, _ string) (*Token, error) {
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

type youtubeThumbnail struct {
	URL string `json:"url"`
}

type youtubeChannelList struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string                      `json:"title"`
			CustomURL  string                      `json:"customUrl"`
			Thumbnails map[string]youtubeThumbnail `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount       string `json:"viewCount"`
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// FetchIdentity loads the caller's own channel. A Google account without a
// channel is a terminal, user-facing condition.
func (c *YouTubeClient) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	var channels youtubeChannelList
	u := c.APIBaseURL + "/channels?part=snippet&mine=true"
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &channels); err != nil {
		return nil, err
	}
	if len(channels.Items) == 0 {
		return nil, &IdentityFetchError{Platform: c.Platform(), Reason: "no YouTube channel for this account"}
	}

	ch := channels.Items[0]
	username := strings.TrimPrefix(ch.Snippet.CustomURL, "@")
	if username == "" {
		username = ch.Snippet.Title
	}
	avatar := ""
	if t, ok := ch.Snippet.Thumbnails["default"]; ok {
		avatar = t.URL
	}
	return &Identity{
		PlatformUserID:  ch.ID,
		Username:        username,
		DisplayName:     ch.Snippet.Title,
		ProfileImageURL: avatar,
	}, nil
}

// FetchStats combines channel totals with a recent-video engagement sample
// and, when the analytics scope is granted, a 30-day analytics report. The
// engagement source priority is analytics, then the recent sample, then a
// subscriber-based fallback.
func (c *YouTubeClient) FetchStats(ctx context.Context, accessToken string) (*Metrics, error) {
	var channels youtubeChannelList
	u := c.APIBaseURL + "/channels?part=snippet,statistics&mine=true"
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &channels); err != nil {
		return nil, err
	}
	if len(channels.Items) == 0 {
		return nil, &IdentityFetchError{Platform: c.Platform(), Reason: "no YouTube channel for this account"}
	}

	ch := channels.Items[0]
	subscribers := parseCount(ch.Statistics.SubscriberCount)
	totalVideos := parseCount(ch.Statistics.VideoCount)
	totalViews := parseCount(ch.Statistics.ViewCount)

	sample, sampleErr := c.fetchRecentSample(ctx, accessToken, ch.ID)
	if sampleErr != nil {
		// Expired credentials must surface; a missing sample is survivable.
		var expired *CredentialExpiredError
		if errors.As(sampleErr, &expired) {
			return nil, sampleErr
		}
		sample = videoSample{}
	}

	analyticsRate := c.fetchAnalyticsEngagement(ctx, accessToken)

	sampleRate := 0.0
	if sample.views > 0 {
		sampleRate = float64(sample.likes+sample.comments) / float64(sample.views) * 100
	}

	rate := 0.0
	switch {
	case analyticsRate > 0:
		rate = analyticsRate
	case sampleRate > 0:
		rate = sampleRate
	case subscribers > 0:
		rate = float64(sample.likes+sample.comments) / float64(subscribers) * 100
	}

	sampled := totalVideos
	if sampled > youtubeSampleSize {
		sampled = youtubeSampleSize
	}
	avgLikes := int64(0)
	avgComments := int64(0)
	if sampled > 0 {
		avgLikes = sample.likes / sampled
		avgComments = sample.comments / sampled
	}

	return &Metrics{
		FollowersCount:     subscribers,
		FollowingCount:     0, // channels do not follow anyone
		PostsCount:         totalVideos,
		LikesCount:         sample.likes,
		ViewsCount:         totalViews,
		EngagementRate:     ClampRate(math.Round(rate*100) / 100),
		AvgLikesPerPost:    avgLikes,
		AvgCommentsPerPost: avgComments,
	}, nil
}

type videoSample struct {
	likes    int64
	comments int64
	views    int64
	count    int64
}

func (c *YouTubeClient) fetchRecentSample(ctx context.Context, accessToken, channelID string) (videoSample, error) {
	var search struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	u := fmt.Sprintf("%s/search?part=snippet&channelId=%s&type=video&order=date&maxResults=%d",
		c.APIBaseURL, url.QueryEscape(channelID), youtubeSampleSize)
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &search); err != nil {
		return videoSample{}, err
	}
	if len(search.Items) == 0 {
		return videoSample{}, nil
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}

	var videos struct {
		Items []struct {
			Statistics struct {
				ViewCount    string `json:"viewCount"`
				LikeCount    string `json:"likeCount"`
				CommentCount string `json:"commentCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	u = fmt.Sprintf("%s/videos?part=statistics&id=%s", c.APIBaseURL, strings.Join(ids, ","))
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &videos); err != nil {
		return videoSample{}, err
	}

	var sample videoSample
	for _, v := range videos.Items {
		sample.likes += parseCount(v.Statistics.LikeCount)
		sample.comments += parseCount(v.Statistics.CommentCount)
		sample.views += parseCount(v.Statistics.ViewCount)
		sample.count++
	}
	return sample, nil
}

// fetchAnalyticsEngagement returns the 30-day engagement rate, or 0 when the
// analytics scope is missing or the report fails. Analytics access is
// best-effort; its absence is not an error.
func (c *YouTubeClient) fetchAnalyticsEngagement(ctx context.Context, accessToken string) float64 {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)
	u := fmt.Sprintf("%s/reports?ids=channel%%3D%%3DMINE&startDate=%s&endDate=%s&metrics=views,likes,comments&dimensions=day",
		c.AnalyticsBaseURL, start.Format("2006-01-02"), end.Format("2006-01-02"))

	// rows are [day, views, likes, comments]; the day column is a string
	var report struct {
		Rows [][]interface{} `json:"rows"`
	}
	if err := getJSON(ctx, c.HTTPClient, c.Platform(), u, accessToken, &report); err != nil {
		return 0
	}

	var views, likes, comments float64
	for _, row := range report.Rows {
		if len(row) < 4 {
			continue
		}
		views += asFloat(row[1])
		likes += asFloat(row[2])
		comments += asFloat(row[3])
	}
	if views <= 0 {
		return 0
	}
	return (likes + comments) / views * 100
}

func asFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
