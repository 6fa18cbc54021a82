package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/shared"
	"github.com/desertthunder/ytrec/internal/tasks"
	"github.com/desertthunder/ytrec/internal/ui"
	"github.com/urfave/cli/v3"
)

// Search resolves each query to its top video. Failed queries are reported, never fatal.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	queries := append(cmd.StringSlice("query"), cmd.Args().Slice()...)
	if len(queries) == 0 {
		return fmt.Errorf("%w: provide queries as arguments or with --query", shared.ErrMissingArgument)
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}

	opts := tasks.SearchOpts{Concurrency: cmd.Int("concurrency")}
	if cmd.IsSet("max") {
		opts.MaxQueries = tasks.LimitTo(cmd.Int("max"))
	}

	progress, stop := r.startProgress()
	records, err := r.engine.SearchBatch(ctx, progress, queries, opts)
	stop()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string][]models.MatchRecord{"results": records}, cmd.Bool("pretty"))
	}

	for _, rec := range records {
		r.writePlain("%s\n", ui.MatchLine(rec))
	}
	r.writePlainln("%d/%d queries matched", countFound(records), len(records))

	return nil
}

func countFound(records []models.MatchRecord) int {
	n := 0
	for _, rec := range records {
		if rec.OK && rec.Result != nil {
			n++
		}
	}
	return n
}
