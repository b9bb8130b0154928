package rbac

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/fasops-io/fasops/testing"
)

func newRBACRouter(repo Repository) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo))
	r := chi.NewRouter()
	r.Route("/roles", handler.MountRoleRoutes)
	r.Route("/permissions", handler.MountPermissionRoutes)
	return r
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestCreateRoleEndpoint(t *testing.T) {
	repo := newMockRepo()
	router := newRBACRouter(repo)

	res := doJSON(router, http.MethodPost, "/roles", map[string]string{"name": "dispatcher"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	var role struct {
		ID          int64    `json:"id"`
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &role))
	assert.NotZero(t, role.ID)
	assert.Equal(t, "dispatcher", role.Name)
	assert.NotNil(t, role.Permissions, "permissions decoded as null")

	res = doJSON(router, http.MethodPost, "/roles", map[string]string{"name": "dispatcher"})
	assert.Equal(t, http.StatusConflict, res.Code, "duplicate name")
}

func TestListRolesEnvelope(t *testing.T) {
	repo := newMockRepo()
	repo.addRole("admin")
	router := newRBACRouter(repo)

	res := doJSON(router, http.MethodGet, "/roles", nil)
	require.Equal(t, http.StatusOK, res.Code)

	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.Len(t, out.Data, 1)
}

func TestAssignPermissionsEndpoint(t *testing.T) {
	repo := newMockRepo()
	role := repo.addRole("manager")
	repo.addPermission("workorders.view")
	router := newRBACRouter(repo)

	res := doJSON(router, http.MethodPost, "/roles/1/assign-permissions", map[string][]string{
		"permissions": {"workorders.view"},
	})
	require.Equal(t, http.StatusNoContent, res.Code, res.Body.String())
	assert.Len(t, repo.rolePerms[role.ID], 1, "permission not attached")

	res = doJSON(router, http.MethodPost, "/roles/1/assign-permissions", map[string][]string{
		"permissions": {"no.such.perm"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code, "unknown permission")

	res = doJSON(router, http.MethodPost, "/roles/1/assign-permissions", map[string][]string{
		"permissions": {},
	})
	assert.Equal(t, http.StatusBadRequest, res.Code, "empty list")
}

func TestDeleteRoleEndpoint(t *testing.T) {
	repo := newMockRepo()
	repo.addRole(AdminRole)
	repo.addRole("viewer")
	router := newRBACRouter(repo)

	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodDelete, "/roles/2", nil).Code, "delete viewer")
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, "/roles/99", nil).Code, "missing role")
}

func TestPermissionEndpoints(t *testing.T) {
	repo := newMockRepo()
	router := newRBACRouter(repo)

	res := doJSON(router, http.MethodPost, "/permissions", map[string]string{"name": "assets.edit"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var perm Permission
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &perm))

	res = doJSON(router, http.MethodGet, "/permissions", nil)
	assert.Equal(t, http.StatusOK, res.Code, "list")

	res = doJSON(router, http.MethodDelete, "/permissions/1", nil)
	require.Equal(t, http.StatusNoContent, res.Code, "delete")

	_, err := repo.PermissionsByName(context.Background(), []string{"assets.edit"})
	require.NoError(t, err)
	assert.Empty(t, repo.perms, "permission not deleted")
}
