// Package http provides HTTP routing and handlers for the mockup review
// service.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/middleware"
)

// RouterConfig carries the transport settings of the router.
type RouterConfig struct {
	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string
	// RequestTimeout bounds each request. Zero means 30 seconds.
	RequestTimeout time.Duration
}

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Mockups  *MockupHandler
	Versions *VersionHandler
	Comments *CommentHandler
	Health   *HealthHandler
}

// NewRouter constructs the HTTP handler serving the mockup API.
//
// Routes (designer = valid designer bearer token required):
//
//	GET    /healthz                                  liveness
//	GET    /mockups                         designer list summaries
//	POST   /mockups                         designer create
//	GET    /mockups/{id}                             read (?password=&version=)
//	PUT    /mockups/{id}                    designer update
//	DELETE /mockups/{id}                    designer cascading delete
//	GET    /mockups/{id}/versions                    version history
//	POST   /mockups/{id}/versions           designer cut a version
//	GET    /mockups/{id}/versions/{version}          archived snapshot
//	DELETE /mockups/{id}/versions/{version} designer delete a past version
//	GET    /mockups/{id}/comments                    list (?version=)
//	POST   /mockups/{id}/comments                    add
//	DELETE /mockups/{id}/comments           designer remove all
//	PUT    /mockups/{id}/comments/{cid}              edit (author token)
//	PUT    /mockups/{id}/comments/{cid}/resolve designer resolve toggle
//	DELETE /mockups/{id}/comments/{cid}              remove (author token or designer)
//
// Middleware chain (applied in order): request id, real ip, request
// logging, panic recovery, CORS, JSON content type, timeout.
func NewRouter(
	h Handlers,
	verifier middleware.TokenVerifier,
	cfg RouterConfig,
	logger *zap.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	designer := middleware.RequireDesigner(verifier)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	// Only allow request bodies with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", h.Health.Check)

	r.Route("/mockups", func(r chi.Router) {
		r.With(designer).Get("/", h.Mockups.List)
		r.With(designer).Post("/", h.Mockups.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(middleware.OptionalDesigner(verifier))

			r.Get("/", h.Mockups.Read)
			r.With(designer).Put("/", h.Mockups.Update)
			r.With(designer).Delete("/", h.Mockups.Delete)

			r.Get("/versions", h.Versions.List)
			r.With(designer).Post("/versions", h.Versions.Cut)
			r.Get("/versions/{version}", h.Versions.Get)
			r.With(designer).Delete("/versions/{version}", h.Versions.Delete)

			r.Get("/comments", h.Comments.List)
			r.Post("/comments", h.Comments.Add)
			r.With(designer).Delete("/comments", h.Comments.RemoveAll)
			r.Put("/comments/{cid}", h.Comments.Edit)
			r.With(designer).Put("/comments/{cid}/resolve", h.Comments.Resolve)
			r.Delete("/comments/{cid}", h.Comments.Remove)
		})
	})

	return r
}
