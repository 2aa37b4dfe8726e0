package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/tarushsinha/ATHOS/internal/auth"
)

// RouterParams configures NewRouter.
type RouterParams struct {
	Handler        *Handler
	Auth           auth.Config
	AllowedOrigins []string
	// Metrics is served on /metrics without authentication when set.
	Metrics        http.Handler
	TracingEnabled bool
}

// NewRouter assembles the routes and the middleware chain.
func NewRouter(params RouterParams) *mux.Router {
	r := mux.NewRouter()
	if params.TracingEnabled {
		r.Use(otelmux.Middleware("athos-api"))
	}

	params.Handler.RegisterRoutes(r)
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics).Methods(http.MethodGet)
	}

	authMiddleware := auth.NewMiddleware(params.Auth, PublicRequest)

	r.Use(PanicRecovery())
	r.Use(LogRequest())
	r.Use(RequestMetrics())
	r.Use(Cors(params.AllowedOrigins))
	r.Use(authMiddleware.Wrap)
	r.Use(CaptureUser())
	r.Use(DrainAndCloseRequest())
	return r
}

// PublicRequest reports whether the request skips bearer authentication.
func PublicRequest(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/healthz", "/metrics", "/v1/auth/signup", "/v1/auth/login":
		return true
	}
	return false
}
