package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/fasops-io/fasops/internal/auth"
	"github.com/fasops-io/fasops/internal/observability"
	"github.com/fasops-io/fasops/internal/rbac"
	"github.com/fasops-io/fasops/internal/users"
)

// Permission names gating the administrative route groups.
const (
	PermManageRoles = "roles.manage"
	PermManageUsers = "users.manage"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthService    *auth.Service
	AuthHandler    *auth.Handler
	RBACHandler    *rbac.Handler
	RBACMiddleware rbac.Middleware
	UsersHandler   *users.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with fasops defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	loginLimit := 10
	loginWindow := time.Minute
	if params.Config != nil {
		if params.Config.LoginRateLimit > 0 {
			loginLimit = params.Config.LoginRateLimit
		}
		if params.Config.LoginRateWindow > 0 {
			loginWindow = params.Config.LoginRateWindow
		}
	}

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(loginLimit, loginWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.AuthHandler.MountPublicRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireToken(params.AuthService, params.Logger))
		params.AuthHandler.MountProtectedRoutes(r)

		r.Route("/roles", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequirePermission(PermManageRoles))
			params.RBACHandler.MountRoleRoutes(r)
		})
		r.Route("/permissions", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequirePermission(PermManageRoles))
			params.RBACHandler.MountPermissionRoutes(r)
		})
		r.Route("/users", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequirePermission(PermManageUsers))
			params.UsersHandler.MountRoutes(r)
		})
	})

	return r
}
