// Package httprouter serves the Prometheus metrics and a read-only status API
// of the playlist runner.
package httprouter

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/batch"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/infrastructure/delivery/http/middleware"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/infrastructure/delivery/http/response"
)

// Runs exposes the runner state served by the API.
type Runs interface {
	Status() batch.Status
	LastReport() (*entity.Report, bool)
}

// Router is a ServeMux with middleware chains.
type Router struct {
	*http.ServeMux
	log         *slog.Logger
	globalChain []func(http.Handler) http.Handler
	routeChain  []func(http.Handler) http.Handler
	isSubRouter bool
	runs        Runs
	metrics     http.Handler
}

// New creates the router. metrics may be nil, then /metrics is not served.
func New(log *slog.Logger, runs Runs, metrics http.Handler) *Router {
	r := &Router{
		ServeMux: http.NewServeMux(),
		log:      log.With(slog.String("package", "httprouter")),
		runs:     runs,
		metrics:  metrics,
	}

	r.SetGlobalMiddlewares()
	r.SetRoutes()

	return r
}

// Use appends middlewares to the global chain, or to the route chain of a sub-router.
func (r *Router) Use(middleware ...func(http.Handler) http.Handler) {
	if r.isSubRouter {
		r.routeChain = append(r.routeChain, middleware...)
	} else {
		r.globalChain = append(r.globalChain, middleware...)
	}
}

// Group registers routes sharing additional route middlewares.
func (r *Router) Group(fn func(r *Router)) {
	subRouter := &Router{
		isSubRouter: true,
		routeChain:  slices.Clone(r.routeChain),
		ServeMux:    r.ServeMux,
		log:         r.log,
		runs:        r.runs,
	}

	fn(subRouter)
}

// HandleFunc registers h for pattern behind the route chain.
func (r *Router) HandleFunc(pattern string, h http.HandlerFunc) {
	r.Handle(pattern, h)
}

// Handle registers h for pattern behind the route chain.
func (r *Router) Handle(pattern string, h http.Handler) {
	for _, middleware := range slices.Backward(r.routeChain) {
		h = middleware(h)
	}

	r.ServeMux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var h http.Handler = r.ServeMux

	for _, middleware := range slices.Backward(r.globalChain) {
		h = middleware(h)
	}

	h.ServeHTTP(w, req)
}

// SetGlobalMiddlewares installs recovery, request IDs and request logging.
func (r *Router) SetGlobalMiddlewares() {
	r.Use(
		middleware.Recoverer(r.log),
		middleware.WithRequestID,
		middleware.Logger(r.log),
	)
}

// SetRoutes registers every route.
func (r *Router) SetRoutes() {
	if r.metrics != nil {
		r.Handle("GET /metrics", r.metrics)
	}

	r.HandleFunc("GET /v1/readyz", func(w http.ResponseWriter, _ *http.Request) {
		response.OK(w, consts.RespReady, nil)
	})

	r.Group(func(g *Router) {
		g.Use(middleware.NoStore)
		g.HandleFunc("GET /v1/runs/status", g.GetStatus)
		g.HandleFunc("GET /v1/runs/last", g.GetLastReport)
	})
}

// GetStatus returns the current or last run status.
func (r *Router) GetStatus(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, consts.RespStatusRetrieved, r.runs.Status())
}

// GetLastReport returns the report of the last finished run, or 204.
func (r *Router) GetLastReport(w http.ResponseWriter, req *http.Request) {
	report, ok := r.runs.LastReport()
	if !ok {
		r.log.DebugContext(req.Context(), consts.RespNoReport)
		response.NoContent(w)

		return
	}

	response.OK(w, consts.RespReportRetrieved, report)
}
