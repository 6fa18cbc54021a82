// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("YTREC_CONFIG"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "export",
			Aliases: []string{"e"},
			Usage:   "Write the result to a file (csv, md, txt, json)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Export file path (directory for Markdown playlist exports)",
		},
	}
}

// setupCommand handles configuration bootstrap.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage YouTube authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize read access to your YouTube account with OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show which credentials are configured",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the saved OAuth2 token",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand handles playlist listing and enrichment.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "YouTube playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your playlists",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "page-token",
						Usage: "Continue from a previous page",
					},
				}, outputFlags()...),
				Action: r.PlaylistsList,
			},
			{
				Name:  "details",
				Usage: "Fetch playlist entries joined with full video details",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of entries (default from config, capped by max_limit)",
					},
					&cli.StringFlag{
						Name:  "page-token",
						Usage: "Start from a page token returned by a previous call",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Heading used in Markdown and text exports",
					},
				}, outputFlags()...), exportFlags()...),
				Action: r.PlaylistsDetails,
			},
		},
	}
}

// searchCommand resolves free-text queries to videos.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Resolve queries to their top YouTube video",
		ArgsUsage: "[query...]",
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query to resolve (repeatable, combined with positional arguments)",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Maximum number of queries to run (capped by max_queries_cap)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Searches in flight at once (default from config)",
			},
		}, outputFlags()...),
		Action: r.Search,
	}
}

// recommendCommand generates recommendations from a playlist or explicit titles.
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Generate video recommendations from a playlist or a list of titles",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{
				Name:  "playlist-id",
				Usage: "Playlist to draw titles from",
			},
			&cli.StringSliceFlag{
				Name:    "title",
				Aliases: []string{"t"},
				Usage:   "Seed title (repeatable)",
			},
			&cli.StringFlag{
				Name:  "titles-file",
				Usage: "File with one seed title per line",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Playlist entries to read when --playlist-id is set",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Number of recommendations (default from config, capped by max_recommendations)",
			},
		}, outputFlags()...), exportFlags()...),
		Action: r.Recommend,
	}
}

// serveCommand runs the JSON API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the pipeline as a JSON HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse playlists and generate recommendations interactively",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Playlist entries to load",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Number of recommendations",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "~/.ytrec/tui.log",
			},
		},
		Action: r.TUI,
	}
}
