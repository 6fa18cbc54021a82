package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytrec/internal/services"
	"github.com/desertthunder/ytrec/internal/shared"
	"github.com/desertthunder/ytrec/internal/tasks"
	"github.com/desertthunder/ytrec/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	youtube     *services.YouTubeService
	recommender services.Recommender
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	engine      *tasks.PlaylistEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	YouTube     *services.YouTubeService
	Recommender services.Recommender
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		youtube:     opts.YouTube,
		recommender: opts.Recommender,
		tokenSource: opts.TokenSource,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
	}
	r.engine = r.newEngine(r.logger)
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, searchCommand, recommendCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads the config file named by --config, applies environment overrides and builds the clients.
//
// A missing config file falls back to the embedded defaults.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		loaded, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		config = loaded
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}
	shared.ApplyEnv(config)
	r.config = config

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	yt := config.Credentials.YouTube
	r.youtube = services.NewYouTubeService(yt.BaseURL, yt.APIKey).WithHTTPClient(r.httpClient)
	r.tokenSource = r.resolveTokenSource(ctx)

	if config.Credentials.Gemini.APIKey != "" {
		rec, err := services.NewGeminiRecommender(ctx, config.Credentials.Gemini, r.logger)
		if err != nil {
			return ctx, fmt.Errorf("failed to create recommender: %w", err)
		}
		r.recommender = rec
	}

	r.engine = r.newEngine(r.logger)
	return ctx, nil
}

// resolveTokenSource prefers an explicit access token, then a saved OAuth2 token.
func (r *Runner) resolveTokenSource(ctx context.Context) oauth2.TokenSource {
	yt := r.config.Credentials.YouTube
	if yt.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: yt.AccessToken, TokenType: "Bearer"})
	}

	token, err := shared.LoadToken(yt.TokenFile)
	if err != nil {
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			r.logger.Warn("ignoring saved token", "error", err)
		}
		return nil
	}

	oauthConfig, err := r.oauthConfig()
	if err != nil {
		r.logger.Debug("saved token cannot be refreshed", "error", err)
		return oauth2.StaticTokenSource(token)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	return newPersistingTokenSource(oauthConfig.TokenSource(ctx, token), yt.TokenFile, token, r.logger)
}

// catalog returns the YouTube client bound to the configured credentials, or nil without any.
func (r *Runner) catalog() services.Catalog {
	if r.youtube == nil {
		return nil
	}
	if r.tokenSource != nil {
		return r.youtube.WithTokenSource(r.tokenSource)
	}
	if r.config.Credentials.YouTube.APIKey != "" {
		return r.youtube
	}
	return nil
}

func (r *Runner) newEngine(logger *log.Logger) *tasks.PlaylistEngine {
	return tasks.NewPlaylistEngine(r.catalog(), r.recommender, tasks.EngineOpts{
		Pipeline: r.config.Pipeline,
		Logger:   logger,
	})
}

func (r *Runner) requireCatalog() error {
	if r.catalog() == nil {
		return fmt.Errorf("%w: no YouTube credentials configured", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) requireRecommender() error {
	if r.recommender == nil {
		return fmt.Errorf("%w: set GEMINI_API_KEY or credentials.gemini.api_key", shared.ErrMissingCredentials)
	}
	return nil
}

// startProgress logs engine progress until the returned stop function is called.
//
// Per-query search updates are sampled so large batches do not flood the log.
func (r *Runner) startProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	searches := rate.Sometimes{First: 1, Interval: 500 * time.Millisecond}
	go func() {
		defer close(done)
		for u := range progress {
			if u.Phase == tasks.SearchQueries && u.Step != u.Total {
				searches.Do(func() { r.logger.Info(u.Message, "phase", u.Phase.String()) })
				continue
			}
			r.logger.Info(u.Message, "phase", u.Phase.String())
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Styles.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
