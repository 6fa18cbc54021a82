// Package server provides HTTP routing, middleware, the pipeline JSON API, and the Google OAuth callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers so the first added runs outermost. [BasicRouter] registers method-qualified
// [http.ServeMux] patterns.
//
// Bundled middleware:
//   - [RequestIDMiddleware] : X-Request-ID propagation, new ids are v4 UUIDs
//   - [LoggingMiddleware] : one structured log line per request
//   - [RecoverMiddleware] : panics become 500 JSON responses
//
// # API
//
// [APIHandler] serves the pipeline (`ytrec serve`):
//   - GET /api/playlists?pageToken=
//   - GET /api/playlist-details?playlistId=&limit=&pageToken=
//   - POST /api/search-batch {"queries": [...], "maxPerBatch": n}
//   - POST /api/recommend {"titles": [...], "max": n}
//   - GET /health
//
// Errors are returned as {"error", "details", "requestId"} with the status chosen by [StatusFor]:
// upstream failures keep the provider's status, validation failures are 400, and missing credentials are 401.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback used by `ytrec auth login`. It validates the
// state parameter, exchanges the code for tokens, and sends the result through a channel. Only one callback
// is processed.
package server
