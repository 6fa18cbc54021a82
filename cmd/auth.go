package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytrec/internal/server"
	"github.com/desertthunder/ytrec/internal/shared"
	"github.com/desertthunder/ytrec/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

func (r *Runner) oauthConfig() (*oauth2.Config, error) {
	return server.GoogleOAuthConfig(r.config.Credentials.YouTube)
}

// AuthLogin performs the OAuth2 authorization code flow and saves the token.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	oauthConfig, err := r.oauthConfig()
	if err != nil {
		return fmt.Errorf("%w (set them in %s)", err, r.configPath)
	}

	token, err := r.doOAuth(ctx, oauthConfig)
	if err != nil {
		return err
	}

	if token.RefreshToken == "" {
		r.logger.Warn("authorization returned no refresh token; the saved token will expire", "error", shared.ErrNoRefreshToken)
	}

	tokenFile := r.config.Credentials.YouTube.TokenFile
	if err := shared.SaveToken(tokenFile, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	r.writePlainln("%s Authorization successful", ui.Styles.OK(ui.MarkOK))
	r.writePlain("%s Token saved to %s\n\n", ui.Styles.OK(ui.MarkOK), tokenFile)
	r.writePlain("You can now use: ytrec playlists list\n")

	return nil
}

// AuthStatus reports which credentials are configured and whether the saved token is usable.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	yt := r.config.Credentials.YouTube

	r.writePlainHeader("Authentication")

	mark := func(ok bool) string {
		if ok {
			return ui.Styles.OK(ui.MarkOK)
		}
		return ui.Styles.Err(ui.MarkMissing)
	}

	r.writePlain("%s YouTube API key\n", mark(yt.APIKey != ""))
	r.writePlain("%s YouTube access token (env)\n", mark(yt.AccessToken != ""))
	r.writePlain("%s OAuth client\n", mark(yt.ClientID != "" && yt.ClientSecret != ""))

	token, err := shared.LoadToken(yt.TokenFile)
	switch {
	case err != nil:
		r.writePlain("%s Saved token: %v\n", mark(false), err)
	case token.RefreshToken == "":
		r.writePlain("%s Saved token: %s\n", ui.Styles.Warn(ui.MarkNone), shared.ErrNoRefreshToken)
	default:
		r.writePlain("%s Saved token (expires %s)\n", mark(true), token.Expiry.Local().Format(time.RFC1123))
	}

	r.writePlain("%s Gemini API key\n", mark(r.config.Credentials.Gemini.APIKey != ""))

	if r.tokenSource != nil {
		if _, err := r.tokenSource.Token(); err != nil {
			return fmt.Errorf("%w: token refresh failed: %v", shared.ErrAuthFailed, err)
		}
		r.writePlainln("%s Ready to call YouTube with OAuth credentials", ui.Styles.OK(ui.MarkOK))
	} else if yt.APIKey != "" {
		r.writePlainln("%s Ready to call YouTube with an API key (public playlists only)", ui.Styles.OK(ui.MarkOK))
	} else {
		r.writePlainln("%s Not authenticated. Run: ytrec auth login", ui.Styles.Warn(ui.MarkNone))
	}

	return nil
}

// AuthLogout removes the saved token file.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	path := shared.ExpandHome(r.config.Credentials.YouTube.TokenFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r.writePlain("No saved token at %s\n", path)
		}
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return r.writePlain("%s Removed %s\n", ui.Styles.OK(ui.MarkOK), path)
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	state := shared.GenerateID()

	authURL := server.AuthCodeURL(oauthConfig, state)
	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := r.config.Server.Addr()
	httpServer := server.NewHTTPServer(serverAddr, router)

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for YouTube authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("%s Could not open browser automatically.", ui.Styles.Warn("⚠"))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// persistingTokenSource writes refreshed tokens back to the token file.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	logger *log.Logger

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(base oauth2.TokenSource, path string, initial *oauth2.Token, logger *log.Logger) *persistingTokenSource {
	return &persistingTokenSource{base: base, path: path, logger: logger, last: initial.AccessToken}
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if token.AccessToken != p.last {
		p.last = token.AccessToken
		if err := shared.SaveToken(p.path, token); err != nil {
			p.logger.Warn("failed to persist refreshed token", "error", err)
		} else {
			p.logger.Debug("refreshed token saved", "path", p.path)
		}
	}
	return token, nil
}
