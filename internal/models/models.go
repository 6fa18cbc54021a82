package models

import (
	"encoding/json"
	"time"
)

// Thumbnail is a single image rendition keyed by size name ("default", "high", ...).
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// SnapshotItem is a playlist entry as seen at accumulation time. VideoID is empty when the
// provider omitted it.
type SnapshotItem struct {
	VideoID          string               `json:"videoId,omitempty"`
	Title            string               `json:"title"`
	Description      string               `json:"description,omitempty"`
	Position         int                  `json:"position"`
	VideoPublishedAt *time.Time           `json:"videoPublishedAt,omitempty"`
	Thumbnails       map[string]Thumbnail `json:"thumbnails,omitempty"`
}

// Video is the authoritative detail record for one video id.
type Video struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description,omitempty"`
	ChannelID     string               `json:"channelId,omitempty"`
	ChannelTitle  string               `json:"channelTitle,omitempty"`
	PublishedAt   *time.Time           `json:"publishedAt,omitempty"`
	Duration      string               `json:"duration,omitempty"` // ISO 8601, e.g. PT3M21S
	ViewCount     int64                `json:"viewCount"`
	LikeCount     int64                `json:"likeCount"`
	PrivacyStatus string               `json:"privacyStatus,omitempty"`
	Embeddable    bool                 `json:"embeddable"`
	Tags          []string             `json:"tags,omitempty"`
	Thumbnails    map[string]Thumbnail `json:"thumbnails,omitempty"`
}

// EnrichedItem joins a [SnapshotItem] with its [Video]. Missing is true iff VideoID is empty
// or no detail record was returned for it.
type EnrichedItem struct {
	VideoID  string       `json:"videoId"`
	Snapshot SnapshotItem `json:"snapshot"`
	Video    *Video       `json:"video"`
	Missing  bool         `json:"missing"`
}

// MarshalJSON encodes an empty VideoID as null.
func (e EnrichedItem) MarshalJSON() ([]byte, error) {
	type plain EnrichedItem
	var id *string
	if e.VideoID != "" {
		id = &e.VideoID
	}
	return json.Marshal(struct {
		VideoID *string `json:"videoId"`
		plain
	}{id, plain(e)})
}

// Title prefers the authoritative title and falls back to the snapshot's.
func (e EnrichedItem) Title() string {
	if e.Video != nil && e.Video.Title != "" {
		return e.Video.Title
	}
	return e.Snapshot.Title
}

// ListPage is one page from a paginated list endpoint. An empty NextPageToken marks the end of the list.
type ListPage struct {
	Items         []SnapshotItem
	NextPageToken string
}

// SearchResult is the top search hit for a query.
type SearchResult struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
}

// MatchRecord is the outcome of resolving one query. Exactly one of Result or Error is meaningful:
// OK with a nil Result means the search succeeded but found nothing.
type MatchRecord struct {
	Query  string        `json:"query"`
	OK     bool          `json:"ok"`
	Result *SearchResult `json:"result"`
	Error  string        `json:"error,omitempty"`
}

// Match is the looked-up form of a [MatchRecord], keyed by query text.
type Match struct {
	OK     bool
	Result *SearchResult
}

// Recommendation buckets.
const (
	BucketCoreFit   = "CoreFit"
	BucketDiscovery = "Discovery"
	BucketBridge    = "Bridge"
)

// TasteProfile summarises the listener inferred from a set of titles.
type TasteProfile struct {
	Genres []string `json:"genres"`
	Moods  []string `json:"moods"`
	Notes  string   `json:"notes"`
}

// Recommendation is one suggested track. Match is merged in after search resolution and is nil
// when the query failed or found nothing.
type Recommendation struct {
	Artist     string        `json:"artist"`
	Title      string        `json:"title"`
	Reason     string        `json:"reason"`
	MoodTags   []string      `json:"moodTags"`
	Query      string        `json:"query"`
	Confidence float64       `json:"confidence"`
	Novelty    float64       `json:"novelty"`
	Bucket     string        `json:"bucket"`
	Match      *SearchResult `json:"match"`
}

// RecommendationSet is the generator's full output.
type RecommendationSet struct {
	Profile         TasteProfile     `json:"profile"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Queries returns each recommendation's search query in order.
func (r RecommendationSet) Queries() []string {
	queries := make([]string, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		queries[i] = rec.Query
	}
	return queries
}

// PlaylistSummary is one playlist owned by the authenticated user.
type PlaylistSummary struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description,omitempty"`
	ItemCount     int                  `json:"itemCount"`
	PrivacyStatus string               `json:"privacyStatus,omitempty"`
	PublishedAt   *time.Time           `json:"publishedAt,omitempty"`
	Thumbnails    map[string]Thumbnail `json:"thumbnails,omitempty"`
}

// PlaylistPage is a single page of the caller's playlists.
type PlaylistPage struct {
	Items         []PlaylistSummary `json:"items"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
	TotalResults  int               `json:"totalResults"`
}
