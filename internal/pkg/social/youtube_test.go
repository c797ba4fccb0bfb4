package social

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYouTubeTestClient(server *httptest.Server) *YouTubeClient {
	return &YouTubeClient{
		ClientID:          "client-id",
		ClientSecret:      "client-secret",
		RedirectURI:       "http://localhost:4000/social/callback",
		AuthorizeEndpoint: server.URL + "/authorize",
		TokenURL:          server.URL + "/token",
		APIBaseURL:        server.URL + "/youtube",
		AnalyticsBaseURL:  server.URL + "/analytics",
		HTTPClient:        server.Client(),
	}
}

// channelJSON builds a one-channel response with the given totals.
func channelJSON(subscribers, videos, views string) string {
	return fmt.Sprintf(`{
		"items": [{
			"id": "UC123",
			"snippet": {
				"title": "Cool Creator",
				"customUrl": "@coolcreator",
				"thumbnails": {"default": {"url": "https://img.example/a.jpg"}}
			},
			"statistics": {
				"subscriberCount": %q,
				"videoCount": %q,
				"viewCount": %q
			}
		}]
	}`, subscribers, videos, views)
}

func videoListJSON(n int, likesEach, commentsTotal int) string {
	var items []string
	for i := 0; i < n; i++ {
		comments := 0
		if i < commentsTotal {
			comments = 1
		}
		items = append(items, fmt.Sprintf(
			`{"statistics": {"viewCount": "0", "likeCount": "%d", "commentCount": "%d"}}`,
			likesEach, comments))
	}
	return `{"items": [` + strings.Join(items, ",") + `]}`
}

func searchJSON(n int) string {
	var items []string
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(`{"id": {"videoId": "vid%d"}}`, i))
	}
	return `{"items": [` + strings.Join(items, ",") + `]}`
}

func TestYouTubeFetchStats_SubscriberFallback(t *testing.T) {
	// 1000 subscribers, 10 videos with 50 likes and 5 comments total and no
	// view data: engagement falls back to interactions over subscribers.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/youtube/channels"):
			fmt.Fprint(w, channelJSON("1000", "10", "20000"))
		case strings.HasPrefix(r.URL.Path, "/youtube/search"):
			fmt.Fprint(w, searchJSON(10))
		case strings.HasPrefix(r.URL.Path, "/youtube/videos"):
			fmt.Fprint(w, videoListJSON(10, 5, 5))
		case strings.HasPrefix(r.URL.Path, "/analytics/reports"):
			fmt.Fprint(w, `{"rows": []}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newYouTubeTestClient(server)
	metrics, err := client.FetchStats(context.Background(), "token")
	require.NoError(t, err)

	assert.Equal(t, int64(1000), metrics.FollowersCount)
	assert.Equal(t, int64(10), metrics.PostsCount)
	assert.Equal(t, int64(50), metrics.LikesCount)
	assert.Equal(t, int64(20000), metrics.ViewsCount)
	assert.Equal(t, 5.5, metrics.EngagementRate)
	assert.Equal(t, int64(5), metrics.AvgLikesPerPost)
	assert.Equal(t, int64(0), metrics.AvgCommentsPerPost)
}

func TestYouTubeFetchStats_AnalyticsTakesPriority(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/youtube/channels"):
			fmt.Fprint(w, channelJSON("1000", "10", "20000"))
		case strings.HasPrefix(r.URL.Path, "/youtube/search"):
			fmt.Fprint(w, searchJSON(10))
		case strings.HasPrefix(r.URL.Path, "/youtube/videos"):
			fmt.Fprint(w, videoListJSON(10, 5, 5))
		case strings.HasPrefix(r.URL.Path, "/analytics/reports"):
			// 30-day report: views 1000, likes 80, comments 20 -> 10%
			fmt.Fprint(w, `{"rows": [["2026-02-01", 600, 50, 10], ["2026-02-02", 400, 30, 10]]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newYouTubeTestClient(server)
	metrics, err := client.FetchStats(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, 10.0, metrics.EngagementRate)
}

func TestYouTubeFetchStats_SurvivesMissingSample(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/youtube/channels"):
			fmt.Fprint(w, channelJSON("1000", "10", "20000"))
		default:
			// sample and analytics endpoints are down
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := newYouTubeTestClient(server)
	metrics, err := client.FetchStats(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), metrics.FollowersCount)
	assert.Equal(t, 0.0, metrics.EngagementRate)
}

func TestYouTubeFetchIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, channelJSON("1000", "10", "20000"))
	}))
	defer server.Close()

	client := newYouTubeTestClient(server)
	identity, err := client.FetchIdentity(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "UC123", identity.PlatformUserID)
	assert.Equal(t, "coolcreator", identity.Username)
	assert.Equal(t, "Cool Creator", identity.DisplayName)
	assert.Equal(t, "https://img.example/a.jpg", identity.ProfileImageURL)
}

func TestYouTubeFetchIdentity_NoChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": []}`)
	}))
	defer server.Close()

	client := newYouTubeTestClient(server)
	_, err := client.FetchIdentity(context.Background(), "token")
	var identityErr *IdentityFetchError
	assert.ErrorAs(t, err, &identityErr)
}

func TestYouTubeFetchIdentity_ExpiredToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newYouTubeTestClient(server)
	_, err := client.FetchIdentity(context.Background(), "token")
	var expired *CredentialExpiredError
	assert.ErrorAs(t, err, &expired)
}

func TestYouTubeExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		fmt.Fprint(w, `{"access_token": "at", "refresh_token": "rt", "expires_in": 3600}`)
	}))
	defer server.Close()

	client := newYouTubeTestClient(server)
	token, err := client.ExchangeCode(context.Background(), "the-code", "")
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "rt", token.RefreshToken)
	assert.Equal(t, 3600, token.ExpiresIn)
}

func TestYouTubeExchangeCode_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr func(t *testing.T, err error)
	}{
		{
			name:   "provider 5xx is retriable",
			status: http.StatusServiceUnavailable,
			wantErr: func(t *testing.T, err error) {
				var unavailable *ProviderUnavailableError
				assert.ErrorAs(t, err, &unavailable)
			},
		},
		{
			name:   "rejected code is terminal",
			status: http.StatusBadRequest,
			body:   `{"error": "invalid_grant"}`,
			wantErr: func(t *testing.T, err error) {
				var exchange *TokenExchangeError
				assert.ErrorAs(t, err, &exchange)
			},
		},
		{
			name:   "empty access token is terminal",
			status: http.StatusOK,
			body:   `{"access_token": ""}`,
			wantErr: func(t *testing.T, err error) {
				var exchange *TokenExchangeError
				assert.ErrorAs(t, err, &exchange)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := newYouTubeTestClient(server)
			_, err := client.ExchangeCode(context.Background(), "the-code", "")
			require.Error(t, err)
			tt.wantErr(t, err)
		})
	}
}

func TestYouTubeExchangeCode_EmptyCode(t *testing.T) {
	client := &YouTubeClient{ClientID: "id"}
	_, err := client.ExchangeCode(context.Background(), "  ", "")
	var exchange *TokenExchangeError
	assert.ErrorAs(t, err, &exchange)
}

func TestYouTubeAuthorizeURL(t *testing.T) {
	client := &YouTubeClient{
		ClientID:          "client-id",
		RedirectURI:       "http://localhost:4000/social/callback",
		AuthorizeEndpoint: defaultYouTubeAuthorizeURL,
	}
	u, err := client.AuthorizeURL("nonce|youtube", "ignored")
	require.NoError(t, err)
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "state=nonce%7Cyoutube")
}
