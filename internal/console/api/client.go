// Package api is the typed JSON client for the fasops backend. Every
// authenticated request carries the bearer token supplied by the token source.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TokenSource yields the current bearer token, if any. Typically bound to
// session.Store.Token.
type TokenSource func() (string, bool)

// Client talks to the fasops REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient constructs a Client. A nil httpClient gets a 10 second timeout
// default; no retries are performed at this layer.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}
}

// Login exchanges credentials for a bearer token. Unauthenticated.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &out, false); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Register creates a new account. Unauthenticated.
func (c *Client) Register(ctx context.Context, name, email, password, confirmation string) error {
	body := map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": confirmation,
	}
	return c.do(ctx, http.MethodPost, "/register", body, nil, false)
}

// Me resolves the current token into an identity payload.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the current token server side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, true)
}

// ListRoles fetches all roles with their permissions.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	return doList[Role](c, ctx, "/roles")
}

// ListPermissions fetches all permissions.
func (c *Client) ListPermissions(ctx context.Context) ([]Permission, error) {
	return doList[Permission](c, ctx, "/permissions")
}

// ListUsers fetches the user directory.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	return doList[User](c, ctx, "/users")
}

// CreateRole creates a role and returns it with its server-assigned id.
func (c *Client) CreateRole(ctx context.Context, name string) (*Role, error) {
	var out Role
	if err := c.do(ctx, http.MethodPost, "/roles", map[string]string{"name": name}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRole renames a role.
func (c *Client) UpdateRole(ctx context.Context, id int64, name string) (*Role, error) {
	var out Role
	path := "/roles/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"name": name}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRole removes a role.
func (c *Client) DeleteRole(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/roles/"+strconv.FormatInt(id, 10), nil, nil, true)
}

// AssignPermissions grants the named permissions to a role.
func (c *Client) AssignPermissions(ctx context.Context, roleID int64, names []string) error {
	path := "/roles/" + strconv.FormatInt(roleID, 10) + "/assign-permissions"
	return c.do(ctx, http.MethodPost, path, map[string][]string{"permissions": names}, nil, true)
}

// RevokePermissions removes the named permissions from a role.
func (c *Client) RevokePermissions(ctx context.Context, roleID int64, names []string) error {
	path := "/roles/" + strconv.FormatInt(roleID, 10) + "/revoke-permissions"
	return c.do(ctx, http.MethodPost, path, map[string][]string{"permissions": names}, nil, true)
}

// CreatePermission creates a named capability.
func (c *Client) CreatePermission(ctx context.Context, name string) (*Permission, error) {
	var out Permission
	if err := c.do(ctx, http.MethodPost, "/permissions", map[string]string{"name": name}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePermission removes a permission.
func (c *Client) DeletePermission(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/permissions/"+strconv.FormatInt(id, 10), nil, nil, true)
}

// AssignUserRole attaches the named role to a user.
func (c *Client) AssignUserRole(ctx context.Context, userID int64, role string) error {
	path := "/users/" + strconv.FormatInt(userID, 10) + "/roles/assign"
	return c.do(ctx, http.MethodPost, path, map[string]string{"role": role}, nil, true)
}

// RevokeUserRole detaches the named role from a user.
func (c *Client) RevokeUserRole(ctx context.Context, userID int64, role string) error {
	path := "/users/" + strconv.FormatInt(userID, 10) + "/roles/revoke"
	return c.do(ctx, http.MethodPost, path, map[string]string{"role": role}, nil, true)
}

// ChangePassword sets a new password for a user.
func (c *Client) ChangePassword(ctx context.Context, userID int64, password, confirmation string) error {
	path := "/users/" + strconv.FormatInt(userID, 10) + "/change-password"
	body := map[string]string{"password": password, "password_confirmation": confirmation}
	return c.do(ctx, http.MethodPost, path, body, nil, true)
}

func doList[T any](c *Client, ctx context.Context, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw, true); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token, ok := c.tokens()
		if !ok {
			return &APIError{StatusCode: http.StatusUnauthorized, Message: "no session token"}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &APIError{StatusCode: res.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// errorMessage pulls a display string out of an error body. Bodies may carry
// {message} or an RFC7807 problem document; anything else is dropped.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	switch {
	case body.Message != "":
		return body.Message
	case body.Detail != "":
		return body.Detail
	default:
		return body.Title
	}
}
