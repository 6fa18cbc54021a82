// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytrec/internal/models"
)

// FakeCatalog is an in-memory test double for [services.Catalog].
//
// Page tokens are the decimal offset of the next item. Calls are recorded and the peak
// number of concurrent searches is tracked.
type FakeCatalog struct {
	Items         []models.SnapshotItem
	Videos        map[string]models.Video
	SearchResults map[string]*models.SearchResult
	SearchErrs    map[string]error
	Playlists     *models.PlaylistPage
	PageErr       error // returned from the page numbered FailPage (1-based), or every page when FailPage is 0
	FailPage      int
	VideoErr      error
	PlaylistsErr  error
	SearchDelay   time.Duration

	mu          sync.Mutex
	PageSizes   []int
	PageTokens  []string
	Batches     [][]string
	Searches    []string
	inFlight    int
	MaxInFlight int
}

func (f *FakeCatalog) ListPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (*models.ListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.PageSizes = append(f.PageSizes, pageSize)
	f.PageTokens = append(f.PageTokens, pageToken)
	if f.PageErr != nil && (f.FailPage == 0 || f.FailPage == len(f.PageSizes)) {
		return nil, f.PageErr
	}

	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return nil, fmt.Errorf("bad page token %q", pageToken)
		}
		start = n
	}

	end := min(start+pageSize, len(f.Items))
	page := &models.ListPage{Items: append([]models.SnapshotItem(nil), f.Items[start:end]...)}
	if end < len(f.Items) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *FakeCatalog) ListVideos(ctx context.Context, ids []string) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Batches = append(f.Batches, append([]string(nil), ids...))
	if f.VideoErr != nil {
		return nil, f.VideoErr
	}

	videos := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := f.Videos[id]; ok {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

func (f *FakeCatalog) SearchOne(ctx context.Context, query string) (*models.SearchResult, error) {
	f.mu.Lock()
	f.Searches = append(f.Searches, query)
	f.inFlight++
	f.MaxInFlight = max(f.MaxInFlight, f.inFlight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.SearchDelay > 0 {
		select {
		case <-time.After(f.SearchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := f.SearchErrs[query]; ok {
		return nil, err
	}
	return f.SearchResults[query], nil
}

func (f *FakeCatalog) ListPlaylists(ctx context.Context, pageToken string) (*models.PlaylistPage, error) {
	if f.PlaylistsErr != nil {
		return nil, f.PlaylistsErr
	}
	if f.Playlists == nil {
		return &models.PlaylistPage{Items: []models.PlaylistSummary{}}, nil
	}
	return f.Playlists, nil
}

// SearchCount returns how many searches were issued.
func (f *FakeCatalog) SearchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Searches)
}

// FakeRecommender is a test double for [services.Recommender].
type FakeRecommender struct {
	Set       *models.RecommendationSet
	Err       error
	GotTitles []string
	GotCount  int
}

func (f *FakeRecommender) Recommend(ctx context.Context, titles []string, count int) (*models.RecommendationSet, error) {
	f.GotTitles = titles
	f.GotCount = count
	if f.Err != nil {
		return nil, f.Err
	}
	set := *f.Set
	set.Recommendations = append([]models.Recommendation(nil), f.Set.Recommendations...)
	return &set, nil
}

// MakeItems builds n snapshot items with ids "v0".."v{n-1}" at positions 0..n-1.
func MakeItems(n int) []models.SnapshotItem {
	items := make([]models.SnapshotItem, n)
	for i := range items {
		items[i] = models.SnapshotItem{
			VideoID:  fmt.Sprintf("v%d", i),
			Title:    fmt.Sprintf("Snapshot %d", i),
			Position: i,
		}
	}
	return items
}

// MakeVideos builds a detail record for every id.
func MakeVideos(ids ...string) map[string]models.Video {
	videos := make(map[string]models.Video, len(ids))
	for _, id := range ids {
		videos[id] = models.Video{ID: id, Title: "Video " + strings.TrimPrefix(id, "v")}
	}
	return videos
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
