package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytrec/internal/formatter"
	"github.com/desertthunder/ytrec/internal/shared"
	"github.com/desertthunder/ytrec/internal/tasks"
	"github.com/desertthunder/ytrec/internal/ui"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints one page of the authenticated user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	page, err := r.engine.ListPlaylists(ctx, nil, cmd.String("page-token"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists (of %d):\n\n", len(page.Items), page.TotalResults)
	for i, p := range page.Items {
		r.writePlain("%s\n\n", ui.PlaylistLine(i, p))
	}
	if page.NextPageToken != "" {
		r.writePlain("More: ytrec playlists list --page-token %s\n", page.NextPageToken)
	}

	return nil
}

// PlaylistsDetails fetches playlist entries, joins them with video details and prints or exports the result.
func (r *Runner) PlaylistsDetails(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	if playlistID == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}

	format, err := parseExport(cmd)
	if err != nil {
		return err
	}

	r.logger.Infof("enriching playlist %v", playlistID)

	progress, stop := r.startProgress()
	req := tasks.EnrichRequest{PlaylistID: playlistID, PageToken: cmd.String("page-token")}
	if cmd.IsSet("limit") {
		req.Limit = tasks.LimitTo(cmd.Int("limit"))
	}
	result, err := r.engine.Enrich(ctx, progress, req)
	stop()
	if err != nil {
		return err
	}

	if format != "" {
		export, err := formatter.WritePlaylistExport(ctx, result, formatter.ExportOpts{
			Format: format,
			Path:   cmd.String("output"),
			Title:  cmd.String("title"),
			Client: r.httpClient,
		})
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

	r.writePlainHeader(fmt.Sprintf("Playlist %s", result.PlaylistID))
	r.writePlain("Requested: %d  Returned: %d  Unavailable: %d\n\n", result.RequestedLimit, result.ReturnedCount, result.MissingCount)
	for i, it := range result.Items {
		r.writePlain("%s\n", ui.ItemLine(i, it))
	}
	if result.NextPageToken != "" {
		r.writePlain("\nMore: ytrec playlists details --id %s --page-token %s\n", playlistID, result.NextPageToken)
	}

	return nil
}

func parseExport(cmd *cli.Command) (formatter.Format, error) {
	raw := cmd.String("export")
	if raw == "" {
		return "", nil
	}
	return formatter.ParseFormat(raw)
}
