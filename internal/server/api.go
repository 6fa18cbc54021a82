package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/services"
	"github.com/desertthunder/ytrec/internal/shared"
	"github.com/desertthunder/ytrec/internal/tasks"
	"golang.org/x/oauth2"
)

const maxBodyBytes = 1 << 20

// APIHandler exposes the pipeline as JSON endpoints.
//
// Each request gets its own YouTube client: a bearer token in the Authorization header wins,
// then the configured token source, then the configured API key alone.
type APIHandler struct {
	engine   *tasks.PlaylistEngine
	youtube  *services.YouTubeService
	fallback oauth2.TokenSource
	apiKey   bool
	logger   *log.Logger
}

// APIOpts configures an [APIHandler].
type APIOpts struct {
	Engine      *tasks.PlaylistEngine
	YouTube     *services.YouTubeService
	TokenSource oauth2.TokenSource // Used when a request carries no bearer token
	HasAPIKey   bool               // YouTube client sends an API key on every call
	Logger      *log.Logger
}

// NewAPIHandler creates an [APIHandler].
func NewAPIHandler(opts APIOpts) *APIHandler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &APIHandler{
		engine:   opts.Engine,
		youtube:  opts.YouTube,
		fallback: opts.TokenSource,
		apiKey:   opts.HasAPIKey,
		logger:   opts.Logger,
	}
}

// Register adds the API routes and health check to router.
func (h *APIHandler) Register(router *BasicRouter) {
	router.HandleFunc(http.MethodGet, "/health", h.Health)
	router.HandleFunc(http.MethodGet, "/api/playlists", h.Playlists)
	router.HandleFunc(http.MethodGet, "/api/playlist-details", h.PlaylistDetails)
	router.HandleFunc(http.MethodPost, "/api/search-batch", h.SearchBatch)
	router.HandleFunc(http.MethodPost, "/api/recommend", h.Recommend)
}

// NewAPIRouter builds a router with request id, access log, and recovery middleware around the API routes.
func NewAPIRouter(h *APIHandler, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(RequestIDMiddleware(), LoggingMiddleware(logger), RecoverMiddleware(logger))
	h.Register(router)
	return router
}

// engineFor binds the engine to the request's credentials.
func (h *APIHandler) engineFor(r *http.Request) (*tasks.PlaylistEngine, error) {
	if h.engine == nil || h.youtube == nil {
		return nil, fmt.Errorf("%w: pipeline not configured", shared.ErrServiceUnavailable)
	}

	if token, ok := bearerToken(r); ok {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		return h.engine.WithCatalog(h.youtube.WithTokenSource(ts)), nil
	}

	if h.fallback != nil {
		return h.engine.WithCatalog(h.youtube.WithTokenSource(h.fallback)), nil
	}

	if h.apiKey {
		return h.engine.WithCatalog(h.youtube), nil
	}

	return nil, fmt.Errorf("%w: provide a bearer token", shared.ErrNotAuthenticated)
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Health reports liveness.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Playlists handles GET /api/playlists?pageToken=.
func (h *APIHandler) Playlists(w http.ResponseWriter, r *http.Request) {
	engine, err := h.engineFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := engine.ListPlaylists(r.Context(), nil, r.URL.Query().Get("pageToken"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// PlaylistDetails handles GET /api/playlist-details?playlistId=&limit=&pageToken=.
func (h *APIHandler) PlaylistDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	playlistID := strings.TrimSpace(q.Get("playlistId"))
	if playlistID == "" {
		h.writeError(w, r, fmt.Errorf("%w: playlistId is required", shared.ErrMissingArgument))
		return
	}

	var limit *int
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: limit must be an integer", shared.ErrInvalidArgument))
			return
		}
		limit = tasks.LimitTo(n)
	}

	engine, err := h.engineFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := engine.Enrich(r.Context(), nil, tasks.EnrichRequest{
		PlaylistID: playlistID,
		Limit:      limit,
		PageToken:  q.Get("pageToken"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type searchBatchRequest struct {
	Queries     []any `json:"queries"`
	MaxPerBatch *int  `json:"maxPerBatch"`
}

type searchBatchResponse struct {
	Results []models.MatchRecord `json:"results"`
}

// SearchBatch handles POST /api/search-batch {queries, maxPerBatch}.
func (h *APIHandler) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var body searchBatchRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: queries(array) is required", err))
		return
	}

	queries := stringsOnly(body.Queries)
	if len(queries) == 0 {
		h.writeError(w, r, fmt.Errorf("%w: queries(array) is required", shared.ErrInvalidInput))
		return
	}

	engine, err := h.engineFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	results, err := engine.SearchBatch(r.Context(), nil, queries, tasks.SearchOpts{MaxQueries: body.MaxPerBatch})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchBatchResponse{Results: results})
}

type recommendRequest struct {
	Titles []any `json:"titles"`
	Max    int   `json:"max"`
}

// Recommend handles POST /api/recommend {titles, max}.
func (h *APIHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var body recommendRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: titles(array) is required", err))
		return
	}

	titles := stringsOnly(body.Titles)
	if len(titles) == 0 {
		h.writeError(w, r, fmt.Errorf("%w: titles(array) is required", shared.ErrInvalidInput))
		return
	}

	engine, err := h.engineFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := engine.Recommend(r.Context(), nil, tasks.RecommendRequest{Titles: titles, Max: body.Max})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body (%v)", shared.ErrInvalidInput, err)
	}
	return nil
}

// stringsOnly keeps the string elements of a decoded JSON array.
func stringsOnly(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

type errorBody struct {
	Error     string          `json:"error"`
	Details   json.RawMessage `json:"details,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// StatusFor maps an error to the HTTP status returned to API callers.
func StatusFor(err error) int {
	if upstream, ok := shared.AsUpstream(err); ok && upstream.Status >= 400 {
		return upstream.Status
	}

	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidResponse):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := errorBody{Error: err.Error(), RequestID: RequestID(r.Context())}

	if upstream, ok := shared.AsUpstream(err); ok {
		if upstream.Message != "" {
			body.Error = upstream.Message
		}
		body.Details = upstream.Details
	}

	if status >= 500 {
		h.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}
