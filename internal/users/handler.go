package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fasops-io/fasops/internal/auth"
	"github.com/fasops-io/fasops/internal/platform/httpx"
	"github.com/fasops-io/fasops/internal/rbac"
)

// Handler exposes the user directory over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers /users endpoints on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/{id}/roles/assign", h.assignRole)
	r.Post("/{id}/roles/revoke", h.revokeRole)
	r.Post("/{id}/change-password", h.changePassword)
}

type userPayload struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	IsActive bool     `json:"is_active"`
	Roles    []string `json:"roles"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	payload := make([]userPayload, 0, len(list))
	for _, u := range list {
		roles := u.Roles
		if roles == nil {
			roles = []string{}
		}
		payload = append(payload, userPayload{ID: u.ID, Name: u.Name, Email: u.Email, IsActive: u.IsActive, Roles: roles})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": payload})
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	h.mutateRole(w, r, h.service.AssignRole, "assign role")
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	h.mutateRole(w, r, h.service.RevokeRole, "revoke role")
}

func (h *Handler) mutateRole(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID int64, roleName string) error, action string) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role name is required")
		return
	}
	if err := op(r.Context(), id, req.Role); err != nil {
		switch {
		case errors.Is(err, rbac.ErrUnknownRole):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Reference", err.Error())
		default:
			h.logger.Error(action, slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "password and matching confirmation are required")
		return
	}
	if err := h.service.ChangePassword(r.Context(), id, req.Password); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
			return
		}
		h.logger.Error("change password", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
