package api

import (
	"encoding/json"
	"fmt"
)

// Ref is a reference to a named entity. Backends are inconsistent about the
// wire shape: sometimes a bare name string, sometimes {id,name}. Ref accepts
// both so callers never branch on shape.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts either "name" or {"id":1,"name":"name"}.
func (r *Ref) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Name)
	}
	type ref Ref
	var v ref
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("api: decode ref: %w", err)
	}
	*r = Ref(v)
	return nil
}

// User is the wire representation of an account.
type User struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	IsActive bool     `json:"is_active"`
	Roles    []string `json:"roles"`
}

// Role is the wire representation of a role with its attached permissions.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Permissions []Ref  `json:"permissions"`
}

// Permission is the wire representation of a named capability.
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MeResponse is the identity-resolution payload. The user object may be
// partially populated; roles and permissions default to empty.
type MeResponse struct {
	User        User  `json:"user"`
	Roles       []Ref `json:"roles"`
	Permissions []Ref `json:"permissions"`
}

// envelope tolerates list endpoints returning either a bare JSON array or an
// object wrapping it under "data".
type envelope[T any] struct {
	Data []T `json:"data"`
}

func decodeList[T any](data []byte) ([]T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	for _, c := range data {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			var out []T
			if err := json.Unmarshal(data, &out); err != nil {
				return nil, err
			}
			return out, nil
		default:
			var env envelope[T]
			if err := json.Unmarshal(data, &env); err != nil {
				return nil, err
			}
			return env.Data, nil
		}
	}
	return nil, nil
}
