package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/ytrec/internal/shared"
	th "github.com/desertthunder/ytrec/internal/testing"
	"golang.org/x/oauth2"
)

func TestYouTubeService(t *testing.T) {
	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService("", ""); svc == nil {
				t.Fatal("expected service to be created")
			} else if svc.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.baseURL)
			}
		})

		t.Run("creates service with custom URL", func(t *testing.T) {
			customURL := "http://localhost:9000/"
			if svc := NewYouTubeService(customURL, ""); svc.baseURL != "http://localhost:9000" {
				t.Errorf("expected trailing slash to be trimmed, got %s", svc.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService("", ""); svc.Name() != "YouTube" {
			t.Errorf("expected name to be 'YouTube', got %s", svc.Name())
		}
	})

	t.Run("credentials", func(t *testing.T) {
		t.Run("sends API key as query parameter", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("key"); got != "secret-key" {
					t.Errorf("expected key param, got %q", got)
				}
				if r.Header.Get("Authorization") != "" {
					t.Error("expected no Authorization header")
				}
				w.Write([]byte(`{"items":[]}`))
			}))
			defer server.Close()

			svc := NewYouTubeService(server.URL, "secret-key")
			if _, err := svc.SearchOne(context.Background(), "q"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("token source adds bearer header without changing original", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer abc" {
					t.Errorf("expected bearer header, got %q", got)
				}
				w.Write([]byte(`{"items":[]}`))
			}))
			defer server.Close()

			base := NewYouTubeService(server.URL, "")
			authed := base.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc", TokenType: "Bearer"}))

			if _, err := authed.SearchOne(context.Background(), "q"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if base.httpClient != http.DefaultClient {
				t.Error("original client should not be modified")
			}
		})
	})

	t.Run("ListPlaylistItems", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlistItems" {
				t.Errorf("expected path /playlistItems, got %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("playlistId") != "PL123" || q.Get("maxResults") != "20" || q.Get("pageToken") != "tok1" {
				t.Errorf("unexpected query: %s", r.URL.RawQuery)
			}
			if q.Get("part") != "snippet,contentDetails" {
				t.Errorf("unexpected part: %s", q.Get("part"))
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"nextPageToken": "tok2",
				"items": [
					{
						"snippet": {"title": "First", "position": 0, "thumbnails": {"default": {"url": "http://img/1", "width": 120, "height": 90}}},
						"contentDetails": {"videoId": "vid1", "videoPublishedAt": "2021-03-04T05:06:07Z"}
					},
					{
						"snippet": {"title": "Deleted video", "position": 1, "resourceId": {"videoId": "vid2"}},
						"contentDetails": {}
					},
					{"snippet": {"title": "Broken", "position": 2}}
				]
			}`))
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL, "")
		page, err := svc.ListPlaylistItems(context.Background(), "PL123", 20, "tok1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if page.NextPageToken != "tok2" {
			t.Errorf("expected next token tok2, got %s", page.NextPageToken)
		}
		if len(page.Items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(page.Items))
		}
		first := page.Items[0]
		if first.VideoID != "vid1" || first.VideoPublishedAt == nil || first.Thumbnails["default"].Width != 120 {
			t.Errorf("unexpected first item: %+v", first)
		}
		if page.Items[1].VideoID != "vid2" {
			t.Errorf("expected resourceId fallback, got %q", page.Items[1].VideoID)
		}
		if page.Items[2].VideoID != "" || page.Items[2].Position != 2 {
			t.Errorf("expected empty id for broken item, got %+v", page.Items[2])
		}
	})

	t.Run("ListPlaylistItems requires playlist id", func(t *testing.T) {
		_, err := NewYouTubeService("http://unused", "").ListPlaylistItems(context.Background(), "", 10, "")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("ListVideos", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/videos" {
				t.Errorf("expected path /videos, got %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("id"); got != "a,b,c" {
				t.Errorf("expected ids a,b,c, got %s", got)
			}
			if got := r.URL.Query().Get("part"); got != "snippet,contentDetails,statistics,status" {
				t.Errorf("unexpected part: %s", got)
			}
			w.Write([]byte(`{"items": [
				{
					"id": "a",
					"snippet": {"title": "Song A", "channelTitle": "Chan", "publishedAt": "2020-01-01T00:00:00Z", "tags": ["x"]},
					"contentDetails": {"duration": "PT3M21S"},
					"statistics": {"viewCount": "12345", "likeCount": "not-a-number"},
					"status": {"privacyStatus": "public", "embeddable": true}
				},
				{"id": "c", "snippet": {"title": "Song C"}}
			]}`))
		}))
		defer server.Close()

		videos, err := NewYouTubeService(server.URL, "").ListVideos(context.Background(), []string{"a", "b", "c"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(videos) != 2 {
			t.Fatalf("expected 2 videos, got %d", len(videos))
		}

		a := videos[0]
		if a.ViewCount != 12345 || a.LikeCount != 0 {
			t.Errorf("unexpected counts: views %d likes %d", a.ViewCount, a.LikeCount)
		}
		if a.Duration != "PT3M21S" || !a.Embeddable || a.PrivacyStatus != "public" || a.PublishedAt == nil {
			t.Errorf("unexpected video: %+v", a)
		}
		if videos[1].ID != "c" || videos[1].ViewCount != 0 {
			t.Errorf("unexpected sparse video: %+v", videos[1])
		}
	})

	t.Run("ListVideos rejects oversized batch", func(t *testing.T) {
		ids := make([]string, MaxVideoIDs+1)
		_, err := NewYouTubeService("http://unused", "").ListVideos(context.Background(), ids)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("SearchOne", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if r.URL.Path != "/search" || q.Get("type") != "video" || q.Get("maxResults") != "1" {
				t.Errorf("unexpected request: %s?%s", r.URL.Path, r.URL.RawQuery)
			}
			if q.Get("q") == "nothing" {
				w.Write([]byte(`{"items": []}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id":      map[string]string{"videoId": "vid9"},
					"snippet": map[string]string{"title": q.Get("q"), "channelTitle": "Artist - Topic"},
				}},
			})
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL, "")

		result, err := svc.SearchOne(context.Background(), "Artist - Song official audio")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.VideoID != "vid9" || result.Title != "Artist - Song official audio" || result.ChannelTitle != "Artist - Topic" {
			t.Errorf("unexpected result: %+v", result)
		}

		none, err := svc.SearchOne(context.Background(), "nothing")
		if err != nil || none != nil {
			t.Errorf("expected nil result without error, got %+v, %v", none, err)
		}

		if _, err := svc.SearchOne(context.Background(), "   "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for blank query, got %v", err)
		}
	})

	t.Run("ListPlaylists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists" || r.URL.Query().Get("mine") != "true" {
				t.Errorf("unexpected request: %s?%s", r.URL.Path, r.URL.RawQuery)
			}
			w.Write([]byte(`{
				"nextPageToken": "more",
				"pageInfo": {"totalResults": 51},
				"items": [{"id": "PL1", "snippet": {"title": "Mix"}, "contentDetails": {"itemCount": 42}, "status": {"privacyStatus": "private"}}]
			}`))
		}))
		defer server.Close()

		page, err := NewYouTubeService(server.URL, "").ListPlaylists(context.Background(), "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.TotalResults != 51 || page.NextPageToken != "more" {
			t.Errorf("unexpected page info: %+v", page)
		}
		if page.Items[0].ItemCount != 42 || page.Items[0].Title != "Mix" {
			t.Errorf("unexpected playlist: %+v", page.Items[0])
		}
	})

	t.Run("error responses", func(t *testing.T) {
		tests := []struct {
			name       string
			status     int
			body       string
			wantMsg    string
			wantDetail bool
		}{
			{
				name:       "google error payload",
				status:     http.StatusForbidden,
				body:       `{"error":{"code":403,"message":"The request cannot be completed because you have exceeded your quota.","errors":[{"reason":"quotaExceeded"}]}}`,
				wantMsg:    "exceeded your quota",
				wantDetail: true,
			},
			{
				name:    "plain text body",
				status:  http.StatusBadGateway,
				body:    "upstream unavailable",
				wantMsg: "upstream unavailable",
			},
			{
				name:    "empty body",
				status:  http.StatusInternalServerError,
				wantMsg: "YouTube API error",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				_, err := NewYouTubeService(server.URL, "").ListPlaylistItems(context.Background(), "PL1", 50, "")
				if !errors.Is(err, shared.ErrAPIRequest) {
					t.Fatalf("expected ErrAPIRequest, got %v", err)
				}

				upstream, ok := shared.AsUpstream(err)
				if !ok {
					t.Fatalf("expected UpstreamError, got %T", err)
				}
				if upstream.Status != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, upstream.Status)
				}
				if !strings.Contains(upstream.Message, tt.wantMsg) {
					t.Errorf("expected message to contain %q, got %q", tt.wantMsg, upstream.Message)
				}
				if tt.wantDetail && len(upstream.Details) == 0 {
					t.Error("expected raw details to be kept")
				}
			})
		}
	})

	t.Run("malformed success body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		_, err := NewYouTubeService(server.URL, "").ListVideos(context.Background(), []string{"a"})
		if !errors.Is(err, shared.ErrInvalidResponse) {
			t.Errorf("expected ErrInvalidResponse, got %v", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		svc := NewYouTubeService("http://example.invalid", "").WithHTTPClient(&http.Client{
			Transport: th.NewMockRoundTripper(nil, errors.New("connection refused")),
		})
		_, err := svc.ListPlaylists(context.Background(), "")
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("expected transport error, got %v", err)
		}
	})

	t.Run("unreadable error body", func(t *testing.T) {
		svc := NewYouTubeService("http://example.invalid", "").WithHTTPClient(&http.Client{
			Transport: th.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       &th.FCloser{},
				Header:     http.Header{},
			}, nil),
		})
		_, err := svc.SearchOne(context.Background(), "q")
		upstream, ok := shared.AsUpstream(err)
		if !ok || upstream.Status != http.StatusServiceUnavailable {
			t.Errorf("expected 503 upstream error, got %v", err)
		}
	})
}
