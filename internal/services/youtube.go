// YouTube Data API v3 client
//
// Every response is decoded into an explicit struct and translated to [models] types here;
// optional fields that the API omits become zero values.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/shared"
	"golang.org/x/oauth2"
)

const (
	defaultYTBaseURL = "https://www.googleapis.com/youtube/v3"
	// MaxPageSize is the largest maxResults the list endpoints accept.
	MaxPageSize = 50
	// MaxVideoIDs is the largest id batch videos.list accepts.
	MaxVideoIDs = 50
)

type ytThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ytPlaylistItem struct {
	Snippet struct {
		Title       string                 `json:"title"`
		Description string                 `json:"description"`
		Position    int                    `json:"position"`
		Thumbnails  map[string]ytThumbnail `json:"thumbnails"`
		ResourceID  struct {
			VideoID string `json:"videoId"`
		} `json:"resourceId"`
	} `json:"snippet"`
	ContentDetails struct {
		VideoID          string `json:"videoId"`
		VideoPublishedAt string `json:"videoPublishedAt"`
	} `json:"contentDetails"`
}

type ytVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string                 `json:"title"`
		Description  string                 `json:"description"`
		ChannelID    string                 `json:"channelId"`
		ChannelTitle string                 `json:"channelTitle"`
		PublishedAt  string                 `json:"publishedAt"`
		Tags         []string               `json:"tags"`
		Thumbnails   map[string]ytThumbnail `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
		LikeCount string `json:"likeCount"`
	} `json:"statistics"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
		Embeddable    bool   `json:"embeddable"`
	} `json:"status"`
}

type ytSearchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

type ytPlaylist struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string                 `json:"title"`
		Description string                 `json:"description"`
		PublishedAt string                 `json:"publishedAt"`
		Thumbnails  map[string]ytThumbnail `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails struct {
		ItemCount int `json:"itemCount"`
	} `json:"contentDetails"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
}

type ytPageInfo struct {
	TotalResults int `json:"totalResults"`
}

// YouTubeService is a YouTube Data API v3 client.
//
// Credentials are explicit: an API key is sent as the key parameter and a token source,
// when set with [YouTubeService.WithTokenSource], authorizes every request with a bearer token.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewYouTubeService creates a YouTube client. An empty baseURL selects the public API.
func NewYouTubeService(baseURL, apiKey string) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// WithTokenSource returns a copy of the client that authorizes requests with tokens from ts.
//
// The receiver is left untouched so one configured client can serve many callers.
func (y *YouTubeService) WithTokenSource(ts oauth2.TokenSource) *YouTubeService {
	clone := *y
	base := y.httpClient.Transport
	clone.httpClient = &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: base},
		Timeout:   y.httpClient.Timeout,
	}
	return &clone
}

// WithHTTPClient returns a copy of the client using c for transport.
func (y *YouTubeService) WithHTTPClient(c *http.Client) *YouTubeService {
	clone := *y
	clone.httpClient = c
	return &clone
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, params url.Values, result any) error {
	if params == nil {
		params = url.Values{}
	}
	if y.apiKey != "" {
		params.Set("key", y.apiKey)
	}

	apiURL := y.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeUpstreamError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrInvalidResponse, err)
		}
	}

	return nil
}

// decodeUpstreamError builds an [shared.UpstreamError] from a non-2xx response, keeping the raw payload.
func decodeUpstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	upstream := &shared.UpstreamError{Status: resp.StatusCode}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Valid(body) {
		upstream.Details = json.RawMessage(bytes.Clone(body))
		if err := json.Unmarshal(body, &errResp); err == nil {
			upstream.Message = errResp.Error.Message
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		upstream.Message = text
	}

	if upstream.Message == "" {
		upstream.Message = "YouTube API error"
	}
	return upstream
}

// ListPlaylists retrieves one page of the authenticated user's playlists.
//
// Calls GET /playlists?mine=true.
func (y *YouTubeService) ListPlaylists(ctx context.Context, pageToken string) (*models.PlaylistPage, error) {
	params := url.Values{
		"part":       {"snippet,contentDetails,status"},
		"mine":       {"true"},
		"maxResults": {strconv.Itoa(MaxPageSize)},
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp struct {
		NextPageToken string       `json:"nextPageToken"`
		PageInfo      ytPageInfo   `json:"pageInfo"`
		Items         []ytPlaylist `json:"items"`
	}
	if err := y.doRequest(ctx, http.MethodGet, "/playlists", params, &resp); err != nil {
		return nil, err
	}

	page := &models.PlaylistPage{
		Items:         make([]models.PlaylistSummary, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
		TotalResults:  resp.PageInfo.TotalResults,
	}
	for i, p := range resp.Items {
		page.Items[i] = models.PlaylistSummary{
			ID:            p.ID,
			Title:         p.Snippet.Title,
			Description:   p.Snippet.Description,
			ItemCount:     p.ContentDetails.ItemCount,
			PrivacyStatus: p.Status.PrivacyStatus,
			PublishedAt:   parseTime(p.Snippet.PublishedAt),
			Thumbnails:    toThumbnails(p.Snippet.Thumbnails),
		}
	}
	return page, nil
}

// ListPlaylistItems retrieves one page of a playlist's entries.
//
// Calls GET /playlistItems. pageSize is clamped to 1..[MaxPageSize].
func (y *YouTubeService) ListPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (*models.ListPage, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	params := url.Values{
		"part":       {"snippet,contentDetails"},
		"playlistId": {playlistID},
		"maxResults": {strconv.Itoa(shared.ClampInt(pageSize, MaxPageSize, 1, MaxPageSize))},
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp struct {
		NextPageToken string           `json:"nextPageToken"`
		Items         []ytPlaylistItem `json:"items"`
	}
	if err := y.doRequest(ctx, http.MethodGet, "/playlistItems", params, &resp); err != nil {
		return nil, err
	}

	page := &models.ListPage{
		Items:         make([]models.SnapshotItem, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for i, it := range resp.Items {
		videoID := it.ContentDetails.VideoID
		if videoID == "" {
			videoID = it.Snippet.ResourceID.VideoID
		}
		page.Items[i] = models.SnapshotItem{
			VideoID:          videoID,
			Title:            it.Snippet.Title,
			Description:      it.Snippet.Description,
			Position:         it.Snippet.Position,
			VideoPublishedAt: parseTime(it.ContentDetails.VideoPublishedAt),
			Thumbnails:       toThumbnails(it.Snippet.Thumbnails),
		}
	}
	return page, nil
}

// ListVideos retrieves authoritative records for up to [MaxVideoIDs] ids.
//
// Calls GET /videos. Unknown, deleted, and private ids are absent from the result.
func (y *YouTubeService) ListVideos(ctx context.Context, ids []string) ([]models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxVideoIDs {
		return nil, fmt.Errorf("%w: %d video ids exceeds batch size %d", shared.ErrInvalidArgument, len(ids), MaxVideoIDs)
	}

	params := url.Values{
		"part":       {"snippet,contentDetails,statistics,status"},
		"id":         {strings.Join(ids, ",")},
		"maxResults": {strconv.Itoa(MaxVideoIDs)},
	}

	var resp struct {
		Items []ytVideo `json:"items"`
	}
	if err := y.doRequest(ctx, http.MethodGet, "/videos", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, v := range resp.Items {
		if v.ID == "" {
			continue
		}
		videos = append(videos, models.Video{
			ID:            v.ID,
			Title:         v.Snippet.Title,
			Description:   v.Snippet.Description,
			ChannelID:     v.Snippet.ChannelID,
			ChannelTitle:  v.Snippet.ChannelTitle,
			PublishedAt:   parseTime(v.Snippet.PublishedAt),
			Duration:      v.ContentDetails.Duration,
			ViewCount:     parseCount(v.Statistics.ViewCount),
			LikeCount:     parseCount(v.Statistics.LikeCount),
			PrivacyStatus: v.Status.PrivacyStatus,
			Embeddable:    v.Status.Embeddable,
			Tags:          v.Snippet.Tags,
			Thumbnails:    toThumbnails(v.Snippet.Thumbnails),
		})
	}
	return videos, nil
}

// SearchOne returns the top video hit for query, or nil when there is none.
//
// Calls GET /search?type=video&maxResults=1.
func (y *YouTubeService) SearchOne(ctx context.Context, query string) (*models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {"1"},
		"q":          {query},
	}

	var resp struct {
		Items []ytSearchItem `json:"items"`
	}
	if err := y.doRequest(ctx, http.MethodGet, "/search", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 || resp.Items[0].ID.VideoID == "" {
		return nil, nil
	}

	item := resp.Items[0]
	return &models.SearchResult{
		VideoID:      item.ID.VideoID,
		Title:        item.Snippet.Title,
		ChannelTitle: item.Snippet.ChannelTitle,
	}, nil
}

func toThumbnails(in map[string]ytThumbnail) map[string]models.Thumbnail {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]models.Thumbnail, len(in))
	for k, t := range in {
		out[k] = models.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height}
	}
	return out
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// parseCount reads the string-encoded counters the statistics part uses.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
