package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/tasks"
)

// Markers prefix result lines in plain output.
const (
	MarkOK      = "✓"
	MarkMissing = "✗"
	MarkNone    = "–"
)

// PlaylistLine renders one playlist summary.
func PlaylistLine(i int, p models.PlaylistSummary) string {
	line := fmt.Sprintf("%d. %s %s", i+1, p.Title, Styles.Help(fmt.Sprintf("(%d videos)", p.ItemCount)))
	return line + "\n   ID: " + p.ID
}

// ItemLine renders one enriched playlist entry, flagging entries without a detail record.
func ItemLine(i int, it models.EnrichedItem) string {
	if it.Missing {
		return fmt.Sprintf("%s %d. %s %s", Styles.Err(MarkMissing), i+1, it.Title(), Styles.Help("(unavailable)"))
	}

	line := fmt.Sprintf("%s %d. %s", Styles.OK(MarkOK), i+1, it.Title())
	if it.Video.ChannelTitle != "" {
		line += " " + Styles.Help("· "+it.Video.ChannelTitle)
	}
	return line
}

// MatchLine renders the outcome of one search query.
func MatchLine(rec models.MatchRecord) string {
	switch {
	case !rec.OK:
		return fmt.Sprintf("%s %s: %s", Styles.Err(MarkMissing), rec.Query, rec.Error)
	case rec.Result == nil:
		return fmt.Sprintf("%s %s: %s", Styles.Warn(MarkNone), rec.Query, "no match")
	default:
		return fmt.Sprintf("%s %s → %s %s", Styles.OK(MarkOK), rec.Query, rec.Result.Title,
			Styles.Help(fmt.Sprintf("(%s, %s)", rec.Result.ChannelTitle, rec.Result.VideoID)))
	}
}

// RecommendationLine renders one suggestion with its bucket and resolved video.
func RecommendationLine(i int, rec models.Recommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d. %s - %s %s", i+1, rec.Artist, rec.Title, Styles.Help("["+rec.Bucket+"]"))
	if rec.Reason != "" {
		fmt.Fprintf(&b, "\n   %s", rec.Reason)
	}

	if rec.Match != nil {
		fmt.Fprintf(&b, "\n   %s %s (https://youtu.be/%s)", Styles.OK(MarkOK), rec.Match.Title, rec.Match.VideoID)
	} else {
		fmt.Fprintf(&b, "\n   %s %s", Styles.Warn(MarkNone), "no match for "+rec.Query)
	}
	return b.String()
}

// ProfileBlock renders the taste profile header of a recommendation set.
func ProfileBlock(p models.TasteProfile) string {
	var b strings.Builder
	if len(p.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(p.Genres, ", "))
	}
	if len(p.Moods) > 0 {
		fmt.Fprintf(&b, "Moods: %s\n", strings.Join(p.Moods, ", "))
	}
	if p.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", p.Notes)
	}
	return b.String()
}

// ProgressLine renders a progress update as "[phase] message".
func ProgressLine(u tasks.ProgressUpdate) string {
	return Styles.Help("["+u.Phase.String()+"]") + " " + u.Message
}
