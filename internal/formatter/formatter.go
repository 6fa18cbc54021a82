// package formatter renders enriched playlists and recommendation sets to files (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/shared"
	"github.com/desertthunder/ytrec/internal/tasks"
)

// Format names an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common alias ("markdown", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (csv, md, txt, json)", shared.ErrInvalidArgument, s)
	}
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// FormatDuration converts an ISO 8601 video duration (PT1H2M3S) to "1:02:03" or "2:03".
//
// Unparseable input is returned unchanged.
func FormatDuration(iso string) string {
	m := isoDurationRe.FindStringSubmatch(iso)
	if m == nil {
		return iso
	}

	var parts [3]int
	for i := range parts {
		if m[i+1] != "" {
			parts[i], _ = strconv.Atoi(m[i+1])
		}
	}

	hours, mins, secs := parts[0], parts[1], parts[2]
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// PlaylistToCSV converts an enriched playlist to CSV with one row per entry, unavailable entries included.
func PlaylistToCSV(result *tasks.EnrichResult) ([]byte, error) {
	headers := []string{"Position", "VideoID", "Title", "Channel", "Duration", "Views", "PublishedAt", "Missing"}

	rows := make([][]string, 0, len(result.Items))
	for _, it := range result.Items {
		row := []string{strconv.Itoa(it.Snapshot.Position), it.VideoID, it.Title(), "", "", "", "", strconv.FormatBool(it.Missing)}
		if v := it.Video; v != nil {
			row[3] = v.ChannelTitle
			row[4] = FormatDuration(v.Duration)
			row[5] = strconv.FormatInt(v.ViewCount, 10)
			if v.PublishedAt != nil {
				row[6] = v.PublishedAt.Format(time.RFC3339)
			}
		}
		rows = append(rows, row)
	}

	return writeCSV(headers, rows)
}

// RecommendationsToCSV converts a recommendation set to CSV with the matched video, if any, per row.
func RecommendationsToCSV(result *tasks.RecommendResult) ([]byte, error) {
	headers := []string{"Artist", "Title", "Bucket", "Confidence", "Novelty", "Query", "VideoID", "MatchTitle", "Reason"}

	rows := make([][]string, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		row := []string{
			rec.Artist,
			rec.Title,
			rec.Bucket,
			strconv.FormatFloat(rec.Confidence, 'f', 2, 64),
			strconv.FormatFloat(rec.Novelty, 'f', 2, 64),
			rec.Query,
			"",
			"",
			rec.Reason,
		}
		if rec.Match != nil {
			row[6] = rec.Match.VideoID
			row[7] = rec.Match.Title
		}
		rows = append(rows, row)
	}

	return writeCSV(headers, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistToMarkdown converts an enriched playlist to Markdown with optional cover image.
//
// title defaults to the playlist id.
func PlaylistToMarkdown(result *tasks.EnrichResult, title, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = result.PlaylistID
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Playlist**: %s\n", result.PlaylistID))
	buf.WriteString(fmt.Sprintf("**Videos**: %d (%d unavailable)\n\n", result.ReturnedCount, result.MissingCount))

	buf.WriteString("## Videos\n\n")
	for i, it := range result.Items {
		if it.Missing {
			buf.WriteString(fmt.Sprintf("%d. ~~%s~~ (unavailable)\n", i+1, it.Title()))
			continue
		}
		buf.WriteString(fmt.Sprintf("%d. [%s](https://youtu.be/%s)", i+1, it.Title(), it.VideoID))
		if it.Video.ChannelTitle != "" {
			buf.WriteString(fmt.Sprintf(" - %s", it.Video.ChannelTitle))
		}
		if it.Video.Duration != "" {
			buf.WriteString(fmt.Sprintf(" [%s]", FormatDuration(it.Video.Duration)))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// RecommendationsToMarkdown converts a recommendation set to Markdown grouped by bucket.
func RecommendationsToMarkdown(result *tasks.RecommendResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Recommendations\n\n")
	buf.WriteString(fmt.Sprintf("**Based on**: %d titles\n", result.TitleCount))
	buf.WriteString(fmt.Sprintf("**Matched**: %d/%d\n\n", result.MatchedCount, len(result.Recommendations)))

	p := result.Profile
	if len(p.Genres) > 0 || len(p.Moods) > 0 || p.Notes != "" {
		buf.WriteString("## Taste Profile\n\n")
		if len(p.Genres) > 0 {
			buf.WriteString(fmt.Sprintf("- **Genres**: %s\n", strings.Join(p.Genres, ", ")))
		}
		if len(p.Moods) > 0 {
			buf.WriteString(fmt.Sprintf("- **Moods**: %s\n", strings.Join(p.Moods, ", ")))
		}
		if p.Notes != "" {
			buf.WriteString(fmt.Sprintf("- **Notes**: %s\n", p.Notes))
		}
		buf.WriteString("\n")
	}

	for _, bucket := range []string{models.BucketCoreFit, models.BucketDiscovery, models.BucketBridge} {
		var section []models.Recommendation
		for _, rec := range result.Recommendations {
			if rec.Bucket == bucket {
				section = append(section, rec)
			}
		}
		if len(section) == 0 {
			continue
		}

		buf.WriteString(fmt.Sprintf("## %s\n\n", bucket))
		for i, rec := range section {
			buf.WriteString(fmt.Sprintf("%d. **%s - %s**", i+1, rec.Artist, rec.Title))
			if rec.Match != nil {
				buf.WriteString(fmt.Sprintf(" ([watch](https://youtu.be/%s))", rec.Match.VideoID))
			}
			buf.WriteString("\n")
			if rec.Reason != "" {
				buf.WriteString(fmt.Sprintf("   %s\n", rec.Reason))
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// PlaylistToText converts an enriched playlist to plain text format
func PlaylistToText(result *tasks.EnrichResult, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = result.PlaylistID
	}
	buf.WriteString(fmt.Sprintf("Playlist: %s\n", title))
	buf.WriteString(fmt.Sprintf("Videos: %d (%d unavailable)\n\n", result.ReturnedCount, result.MissingCount))

	for i, it := range result.Items {
		if it.Missing {
			buf.WriteString(fmt.Sprintf("%d. %s [unavailable]\n", i+1, it.Title()))
			continue
		}
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, it.Title()))
	}

	return buf.Bytes(), nil
}

// RecommendationsToText converts a recommendation set to plain text format
func RecommendationsToText(result *tasks.RecommendResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Recommendations: %d (%d matched)\n\n", len(result.Recommendations), result.MatchedCount))
	for i, rec := range result.Recommendations {
		line := fmt.Sprintf("%d. %s - %s [%s]", i+1, rec.Artist, rec.Title, rec.Bucket)
		if rec.Match != nil {
			line += " https://youtu.be/" + rec.Match.VideoID
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// CoverURL returns the best thumbnail of the first available entry, or "".
func CoverURL(items []models.EnrichedItem) string {
	for _, it := range items {
		if it.Missing {
			continue
		}
		for _, size := range []string{"maxres", "standard", "high", "medium", "default"} {
			if t, ok := it.Video.Thumbnails[size]; ok && t.URL != "" {
				return t.URL
			}
		}
	}
	return ""
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
//
// A nil client uses a 30 second timeout.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ExportResult lists the files written by an export.
type ExportResult struct {
	Files      []string
	CoverImage string
}

// ExportOpts configures [WritePlaylistExport] and [WriteRecommendationsExport].
type ExportOpts struct {
	Format Format
	Path   string       // File path, or the directory for Markdown playlist exports
	Title  string       // Playlist heading; defaults to the playlist id
	Client *http.Client // Used to fetch the Markdown cover image
}

// WritePlaylistExport writes an enriched playlist in the requested format.
//
// Paths default to {playlistID}_videos.{ext}. Markdown exports create a directory ({path}/README.md)
// and try to download the cover image next to it; a failed download only skips the image.
func WritePlaylistExport(ctx context.Context, result *tasks.EnrichResult, opts ExportOpts) (*ExportResult, error) {
	if opts.Format == FormatMarkdown {
		return writePlaylistMarkdown(ctx, result, opts)
	}

	path := opts.Path
	if path == "" {
		path = fmt.Sprintf("%s_videos.%s", result.PlaylistID, opts.Format)
	}

	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case FormatCSV:
		data, err = PlaylistToCSV(result)
	case FormatText:
		data, err = PlaylistToText(result, opts.Title)
	case FormatJSON:
		data, err = shared.MarshalJSON(result, true)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", opts.Format, err)
	}

	if err := writeFile(path, data); err != nil {
		return nil, err
	}
	return &ExportResult{Files: []string{path}}, nil
}

func writePlaylistMarkdown(ctx context.Context, result *tasks.EnrichResult, opts ExportOpts) (*ExportResult, error) {
	outputDir := opts.Path
	if outputDir == "" {
		outputDir = result.PlaylistID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	export := &ExportResult{Files: []string{}}

	var coverImageFilename string
	if url := CoverURL(result.Items); url != "" {
		if imageData, err := DownloadImage(ctx, opts.Client, url); err == nil {
			coverImagePath := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(coverImagePath, imageData, 0644); err == nil {
				coverImageFilename = "cover.jpg"
				export.CoverImage = coverImagePath
				export.Files = append(export.Files, coverImagePath)
			}
		}
	}

	mdData, err := PlaylistToMarkdown(result, opts.Title, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := writeFile(mdFile, mdData); err != nil {
		return nil, err
	}
	export.Files = append(export.Files, mdFile)

	return export, nil
}

// WriteRecommendationsExport writes a recommendation set in the requested format.
//
// The path defaults to recommendations.{ext}.
func WriteRecommendationsExport(result *tasks.RecommendResult, opts ExportOpts) (*ExportResult, error) {
	path := opts.Path
	if path == "" {
		path = "recommendations." + string(opts.Format)
	}

	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case FormatCSV:
		data, err = RecommendationsToCSV(result)
	case FormatMarkdown:
		data, err = RecommendationsToMarkdown(result)
	case FormatText:
		data, err = RecommendationsToText(result)
	case FormatJSON:
		data, err = shared.MarshalJSON(result, true)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", opts.Format, err)
	}

	if err := writeFile(path, data); err != nil {
		return nil, err
	}
	return &ExportResult{Files: []string{path}}, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
