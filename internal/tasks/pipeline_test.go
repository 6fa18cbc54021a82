package tasks

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/shared"
	th "github.com/desertthunder/ytrec/internal/testing"
)

func TestFetchPlaylistItems(t *testing.T) {
	ctx := context.Background()

	t.Run("accumulates pages up to target", func(t *testing.T) {
		src := &th.FakeCatalog{Items: th.MakeItems(300)}

		items, token, err := FetchPlaylistItems(ctx, src, "PL1", 120, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(items) != 120 {
			t.Fatalf("expected 120 items, got %d", len(items))
		}
		if !slices.Equal(src.PageSizes, []int{50, 50, 20}) {
			t.Errorf("expected page sizes [50 50 20], got %v", src.PageSizes)
		}
		if token != "120" {
			t.Errorf("expected token from third page, got %q", token)
		}
		for i, it := range items {
			if it.Position != i {
				t.Fatalf("item %d has position %d", i, it.Position)
			}
		}
	})

	t.Run("returns fewer items when list is exhausted", func(t *testing.T) {
		tests := []struct {
			name      string
			available int
			target    int
			wantLen   int
			wantPages int
		}{
			{name: "short list", available: 30, target: 200, wantLen: 30, wantPages: 1},
			{name: "exact multiple", available: 100, target: 100, wantLen: 100, wantPages: 2},
			{name: "exhausted mid way", available: 75, target: 1000, wantLen: 75, wantPages: 2},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				src := &th.FakeCatalog{Items: th.MakeItems(tt.available)}

				items, token, err := FetchPlaylistItems(ctx, src, "PL1", tt.target, "")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(items) != tt.wantLen {
					t.Errorf("expected %d items, got %d", tt.wantLen, len(items))
				}
				if len(src.PageSizes) != tt.wantPages {
					t.Errorf("expected %d page calls, got %d", tt.wantPages, len(src.PageSizes))
				}
				if token != "" {
					t.Errorf("expected empty token after last page, got %q", token)
				}
			})
		}
	})

	t.Run("zero target makes no calls", func(t *testing.T) {
		src := &th.FakeCatalog{Items: th.MakeItems(10)}

		items, token, err := FetchPlaylistItems(ctx, src, "PL1", 0, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 0 || token != "" {
			t.Errorf("expected empty result and token, got %d items, token %q", len(items), token)
		}
		if len(src.PageSizes) != 0 {
			t.Errorf("expected no page calls, got %d", len(src.PageSizes))
		}
	})

	t.Run("resumes from caller token", func(t *testing.T) {
		src := &th.FakeCatalog{Items: th.MakeItems(80)}

		items, _, err := FetchPlaylistItems(ctx, src, "PL1", 10, "50")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if src.PageTokens[0] != "50" {
			t.Errorf("expected first request to use token 50, got %q", src.PageTokens[0])
		}
		if items[0].VideoID != "v50" {
			t.Errorf("expected first item v50, got %s", items[0].VideoID)
		}
	})

	t.Run("page failure aborts without partial result", func(t *testing.T) {
		upstream := &shared.UpstreamError{Status: 403, Message: "quotaExceeded"}
		src := &th.FakeCatalog{Items: th.MakeItems(200), PageErr: upstream, FailPage: 2}

		items, token, err := FetchPlaylistItems(ctx, src, "PL1", 150, "")
		if err == nil {
			t.Fatal("expected error")
		}
		if items != nil || token != "" {
			t.Errorf("expected no partial result, got %d items, token %q", len(items), token)
		}

		got, ok := shared.AsUpstream(err)
		if !ok || got.Status != 403 {
			t.Errorf("expected upstream 403 to propagate, got %v", err)
		}
	})
}

type overshootLister struct{ calls int }

func (o *overshootLister) ListPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (*models.ListPage, error) {
	o.calls++
	return &models.ListPage{Items: th.MakeItems(50), NextPageToken: "next"}, nil
}

type emptyPageLister struct{ calls int }

func (e *emptyPageLister) ListPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (*models.ListPage, error) {
	e.calls++
	return &models.ListPage{NextPageToken: "again"}, nil
}

func TestFetchPlaylistItems_ProviderQuirks(t *testing.T) {
	t.Run("truncates an oversized page", func(t *testing.T) {
		src := &overshootLister{}
		items, token, err := FetchPlaylistItems(context.Background(), src, "PL1", 30, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 30 {
			t.Errorf("expected 30 items, got %d", len(items))
		}
		if token != "next" {
			t.Errorf("expected token to be kept, got %q", token)
		}
		if src.calls != 1 {
			t.Errorf("expected 1 call, got %d", src.calls)
		}
	})

	t.Run("stops on an empty page", func(t *testing.T) {
		src := &emptyPageLister{}
		items, token, err := FetchPlaylistItems(context.Background(), src, "PL1", 100, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 0 || src.calls != 1 {
			t.Errorf("expected a single empty call, got %d items in %d calls", len(items), src.calls)
		}
		if token != "again" {
			t.Errorf("expected token to be returned, got %q", token)
		}
	})
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{name: "130 by 50", n: 130, size: 50, sizes: []int{50, 50, 30}},
		{name: "exact", n: 100, size: 50, sizes: []int{50, 50}},
		{name: "empty", n: 0, size: 50, sizes: []int{}},
		{name: "invalid size", n: 3, size: 0, sizes: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Chunk(make([]int, tt.n), tt.size)
			sizes := make([]int, len(chunks))
			for i, c := range chunks {
				sizes[i] = len(c)
			}
			if !slices.Equal(sizes, tt.sizes) {
				t.Errorf("expected sizes %v, got %v", tt.sizes, sizes)
			}
		})
	}
}

func TestFetchVideoDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("splits into batches and merges", func(t *testing.T) {
		ids := make([]string, 130)
		for i := range ids {
			ids[i] = fmt.Sprintf("v%d", i)
		}
		src := &th.FakeCatalog{Videos: th.MakeVideos(ids...)}

		lookup, err := FetchVideoDetails(ctx, src, ids)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(src.Batches) != 3 {
			t.Fatalf("expected 3 batches, got %d", len(src.Batches))
		}
		sizes := []int{len(src.Batches[0]), len(src.Batches[1]), len(src.Batches[2])}
		slices.Sort(sizes)
		if !slices.Equal(sizes, []int{30, 50, 50}) {
			t.Errorf("expected batch sizes 50, 50, 30, got %v", sizes)
		}
		if len(lookup) != 130 {
			t.Errorf("expected 130 entries, got %d", len(lookup))
		}
	})

	t.Run("omitted ids are absent keys", func(t *testing.T) {
		src := &th.FakeCatalog{Videos: th.MakeVideos("a", "c")}

		lookup, err := FetchVideoDetails(ctx, src, []string{"a", "b", "c"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := lookup["b"]; ok {
			t.Error("deleted id should be absent from lookup")
		}
		if len(lookup) != 2 {
			t.Errorf("expected 2 entries, got %d", len(lookup))
		}
	})

	t.Run("ignores records that were not requested", func(t *testing.T) {
		src := &th.FakeCatalog{Videos: th.MakeVideos("a", "b")}
		src.Videos["a"] = models.Video{ID: "zzz"}

		lookup, err := FetchVideoDetails(ctx, src, []string{"a", "b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := lookup["zzz"]; ok {
			t.Error("lookup keys must be a subset of requested ids")
		}
	})

	t.Run("drops empty and duplicate ids", func(t *testing.T) {
		src := &th.FakeCatalog{Videos: th.MakeVideos("a", "b")}

		if _, err := FetchVideoDetails(ctx, src, []string{"a", "", "b", "a"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(src.Batches, [][]string{{"a", "b"}}) {
			t.Errorf("expected single batch [a b], got %v", src.Batches)
		}
	})

	t.Run("no ids makes no calls", func(t *testing.T) {
		src := &th.FakeCatalog{}
		lookup, err := FetchVideoDetails(ctx, src, []string{"", ""})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lookup) != 0 || len(src.Batches) != 0 {
			t.Errorf("expected empty lookup and no calls")
		}
	})

	t.Run("batch failure aborts", func(t *testing.T) {
		src := &th.FakeCatalog{VideoErr: &shared.UpstreamError{Status: 500, Message: "backendError"}}

		lookup, err := FetchVideoDetails(ctx, src, []string{"a", "b"})
		if err == nil {
			t.Fatal("expected error")
		}
		if lookup != nil {
			t.Error("expected nil lookup on failure")
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest in chain, got %v", err)
		}
	})
}

func TestJoinDetails(t *testing.T) {
	snapshot := []models.SnapshotItem{
		{VideoID: "a", Title: "A", Position: 0},
		{VideoID: "", Title: "no id", Position: 1},
		{VideoID: "gone", Title: "Deleted video", Position: 2},
		{VideoID: "b", Title: "B", Position: 3},
		{VideoID: "a", Title: "A again", Position: 4},
	}
	details := th.MakeVideos("a", "b")

	got := JoinDetails(snapshot, details)

	if len(got) != len(snapshot) {
		t.Fatalf("expected %d entries, got %d", len(snapshot), len(got))
	}

	wantMissing := []bool{false, true, true, false, false}
	for i, entry := range got {
		if !reflect.DeepEqual(entry.Snapshot, snapshot[i]) {
			t.Errorf("entry %d snapshot changed", i)
		}
		if entry.Missing != wantMissing[i] {
			t.Errorf("entry %d missing = %v, want %v", i, entry.Missing, wantMissing[i])
		}
		if entry.Missing != (entry.Video == nil) {
			t.Errorf("entry %d video presence disagrees with missing flag", i)
		}
	}

	if got[0].Title() != "Video a" {
		t.Errorf("expected authoritative title, got %q", got[0].Title())
	}
	if got[2].Title() != "Deleted video" {
		t.Errorf("expected snapshot title fallback, got %q", got[2].Title())
	}
	if CountMissing(got) != 2 {
		t.Errorf("expected 2 missing, got %d", CountMissing(got))
	}

	t.Run("available titles skip missing entries", func(t *testing.T) {
		want := []string{"Video a", "Video b", "Video a"}
		if titles := AvailableTitles(got); !reflect.DeepEqual(titles, want) {
			t.Errorf("AvailableTitles() = %v, want %v", titles, want)
		}
	})

	t.Run("empty snapshot", func(t *testing.T) {
		if got := JoinDetails(nil, details); len(got) != 0 {
			t.Errorf("expected no entries, got %d", len(got))
		}
	})
}

func TestResolveMatches(t *testing.T) {
	ctx := context.Background()
	ax := &models.SearchResult{VideoID: "vid-ax", Title: "A - X", ChannelTitle: "A"}
	by := &models.SearchResult{VideoID: "vid-by", Title: "B - Y", ChannelTitle: "B"}

	t.Run("duplicate queries are dispatched and collapse in the index", func(t *testing.T) {
		src := &th.FakeCatalog{SearchResults: map[string]*models.SearchResult{"A - X": ax, "B - Y": by}}
		queries := []string{"A - X", "A - X", "B - Y"}

		records := ResolveMatches(ctx, src, queries, 3)

		if src.SearchCount() != 3 {
			t.Errorf("expected 3 searches, got %d", src.SearchCount())
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		for i, q := range queries {
			if records[i].Query != q {
				t.Errorf("record %d query = %q, want %q", i, records[i].Query, q)
			}
		}

		index := IndexMatches(records)
		if len(index) != 2 {
			t.Fatalf("expected 2 index entries, got %d", len(index))
		}
		if index["A - X"].Result != ax {
			t.Errorf("expected A - X to map to its search result")
		}
	})

	t.Run("one failure is isolated", func(t *testing.T) {
		src := &th.FakeCatalog{
			SearchResults: map[string]*models.SearchResult{"A - X": ax, "B - Y": by},
			SearchErrs:    map[string]error{"broken": &shared.UpstreamError{Status: 400, Message: "bad query"}},
		}

		records := ResolveMatches(ctx, src, []string{"A - X", "broken", "B - Y"}, 3)

		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[1].OK || records[1].Error == "" || records[1].Result != nil {
			t.Errorf("expected failed record with error, got %+v", records[1])
		}
		if !records[0].OK || records[0].Result != ax {
			t.Errorf("expected first record ok, got %+v", records[0])
		}
		if !records[2].OK || records[2].Result != by {
			t.Errorf("expected third record ok, got %+v", records[2])
		}
	})

	t.Run("no hit is ok with nil result", func(t *testing.T) {
		src := &th.FakeCatalog{}
		records := ResolveMatches(ctx, src, []string{"obscure"}, 1)
		if !records[0].OK || records[0].Result != nil {
			t.Errorf("expected ok record without result, got %+v", records[0])
		}
	})

	t.Run("respects concurrency", func(t *testing.T) {
		src := &th.FakeCatalog{SearchDelay: 5 * time.Millisecond}
		queries := make([]string, 12)
		for i := range queries {
			queries[i] = fmt.Sprintf("q%d", i)
		}

		ResolveMatches(ctx, src, queries, 3)

		if src.MaxInFlight > 3 {
			t.Errorf("expected at most 3 in flight, got %d", src.MaxInFlight)
		}
	})
}

type panickySearcher struct{}

func (panickySearcher) SearchOne(ctx context.Context, query string) (*models.SearchResult, error) {
	panic("boom")
}

func TestResolveMatches_Panic(t *testing.T) {
	records := ResolveMatches(context.Background(), panickySearcher{}, []string{"a", "b"}, 2)
	for _, r := range records {
		if r.OK || r.Error == "" {
			t.Errorf("expected panic to be recorded as failure, got %+v", r)
		}
	}
}

func TestIndexMatches_LastWriteWins(t *testing.T) {
	first := &models.SearchResult{VideoID: "first"}
	second := &models.SearchResult{VideoID: "second"}

	index := IndexMatches([]models.MatchRecord{
		{Query: "q", OK: true, Result: first},
		{Query: "other", OK: false, Error: "boom"},
		{Query: "q", OK: true, Result: second},
	})

	if index["q"].Result != second {
		t.Errorf("expected later record to win")
	}
	if index["other"].OK {
		t.Errorf("expected failed entry to stay failed")
	}
}

func TestMergeMatches(t *testing.T) {
	hit := &models.SearchResult{VideoID: "vid"}
	index := map[string]models.Match{
		"found":  {OK: true, Result: hit},
		"failed": {OK: false},
		"empty":  {OK: true},
	}
	recs := []models.Recommendation{
		{Query: "found"},
		{Query: "failed", Match: &models.SearchResult{VideoID: "stale"}},
		{Query: "empty"},
		{Query: "unknown"},
	}

	got := MergeMatches(recs, index)

	if got[0].Match != hit {
		t.Errorf("expected match for found query")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Match != nil {
			t.Errorf("recommendation %d should have no match, got %+v", i, got[i].Match)
		}
	}
	if recs[1].Match == nil {
		t.Error("input slice should not be modified")
	}
	if CountMatched(got) != 1 {
		t.Errorf("expected 1 matched, got %d", CountMatched(got))
	}
}
