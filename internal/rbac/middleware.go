package rbac

import (
	"log/slog"
	"net/http"

	"github.com/fasops-io/fasops/internal/auth"
	"github.com/fasops-io/fasops/internal/platform/httpx"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequirePermission ensures the current user holds the named permission.
// Admins pass regardless of their explicit grants.
func (m Middleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			if perm == "" {
				next.ServeHTTP(w, r)
				return
			}
			if ok, err := m.isAdmin(r, user.ID); err != nil {
				m.fail(w, err)
				return
			} else if ok {
				next.ServeHTTP(w, r)
				return
			}
			granted, err := m.Service.EffectivePermissions(r.Context(), user.ID)
			if err != nil {
				m.fail(w, err)
				return
			}
			for _, g := range granted {
				if g == perm {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission "+perm)
		})
	}
}

// RequireAdmin ensures the current user holds the admin role.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			ok, err := m.isAdmin(r, user.ID)
			if err != nil {
				m.fail(w, err)
				return
			}
			if !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) isAdmin(r *http.Request, userID int64) (bool, error) {
	roles, err := m.Service.RolesForUser(r.Context(), userID)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if role == AdminRole {
			return true, nil
		}
	}
	return false, nil
}

func (m Middleware) fail(w http.ResponseWriter, err error) {
	if m.Logger != nil {
		m.Logger.Error("rbac check", slog.Any("error", err))
	}
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
