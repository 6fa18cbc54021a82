package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/ytrec/internal/formatter"
	"github.com/desertthunder/ytrec/internal/shared"
	"github.com/desertthunder/ytrec/internal/tasks"
	"github.com/desertthunder/ytrec/internal/ui"
	"github.com/urfave/cli/v3"
)

// Recommend generates recommendations from a playlist's titles or from explicit seed titles,
// and resolves each suggestion to a YouTube video.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist-id")

	titles := cmd.StringSlice("title")
	if path := cmd.String("titles-file"); path != "" {
		fromFile, err := readLines(path)
		if err != nil {
			return err
		}
		titles = append(titles, fromFile...)
	}

	switch {
	case playlistID == "" && len(titles) == 0:
		return fmt.Errorf("%w: provide --playlist-id, --title or --titles-file", shared.ErrMissingArgument)
	case playlistID != "" && len(titles) > 0:
		return fmt.Errorf("%w: --playlist-id cannot be combined with explicit titles", shared.ErrInvalidArgument)
	}

	if err := r.requireRecommender(); err != nil {
		return err
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}

	format, err := parseExport(cmd)
	if err != nil {
		return err
	}

	progress, stop := r.startProgress()
	var result *tasks.RecommendResult
	if playlistID != "" {
		result, err = r.engine.RecommendFromPlaylist(ctx, progress, playlistID, cmd.Int("limit"), cmd.Int("max"))
	} else {
		result, err = r.engine.Recommend(ctx, progress, tasks.RecommendRequest{Titles: titles, Max: cmd.Int("max")})
	}
	stop()
	if err != nil {
		return err
	}

	if format != "" {
		export, err := formatter.WriteRecommendationsExport(result, formatter.ExportOpts{Format: format, Path: cmd.String("output")})
		if err != nil {
			return err
		}
		for _, f := range export.Files {
			r.writePlain("%s Wrote %s\n", ui.Styles.OK(ui.MarkOK), f)
		}
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Taste Profile")
	r.writePlain("%s\n", ui.ProfileBlock(result.Profile))

	r.writePlainHeader(fmt.Sprintf("%d Recommendations (%d matched, from %d titles)",
		len(result.Recommendations), result.MatchedCount, result.TitleCount))
	for i, rec := range result.Recommendations {
		r.writePlain("%s\n\n", ui.RecommendationLine(i, rec))
	}

	return nil
}

// readLines returns the non-blank lines of a file.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", shared.ErrInvalidArgument, path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
