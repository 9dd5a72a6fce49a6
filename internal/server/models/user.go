package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Role is the global role of a user record.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleGuest    Role = "guest"
)

// ParseRole rejects anything outside the closed role set.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RoleEmployee, RoleGuest:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Module is a business area that scopes permissions independently of role.
type Module string

const (
	ModuleTasks       Module = "tasks"
	ModuleEmployees   Module = "employees"
	ModuleProduction  Module = "production"
	ModuleMaintenance Module = "maintenance"
	ModulePlants      Module = "plants"
	ModuleUsers       Module = "users"
)

// ParseModule rejects unknown module names at the boundary.
func ParseModule(s string) (Module, error) {
	switch m := Module(s); m {
	case ModuleTasks, ModuleEmployees, ModuleProduction, ModuleMaintenance, ModulePlants, ModuleUsers:
		return m, nil
	}
	return "", fmt.Errorf("unknown module %q", s)
}

// Permission is a per-module grant token.
type Permission string

const (
	PermRead   Permission = "read"
	PermWrite  Permission = "write"
	PermDelete Permission = "delete"
	PermAdmin  Permission = "admin"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermRead, PermWrite, PermDelete, PermAdmin:
		return p, nil
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// PermissionSet is a set of tokens granted on one module.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Slice returns the tokens sorted, for stable serialization.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ModulePermissions maps each module to the tokens granted on it.
type ModulePermissions map[Module]PermissionSet

// ParseModulePermissions converts the loosely typed wire/storage form into
// the closed enums. Unknown modules or tokens are an error.
func ParseModulePermissions(raw map[string][]string) (ModulePermissions, error) {
	out := make(ModulePermissions, len(raw))
	for name, tokens := range raw {
		m, err := ParseModule(name)
		if err != nil {
			return nil, err
		}
		set := make(PermissionSet, len(tokens))
		for _, tok := range tokens {
			p, err := ParsePermission(tok)
			if err != nil {
				return nil, fmt.Errorf("module %s: %w", name, err)
			}
			set[p] = struct{}{}
		}
		out[m] = set
	}
	return out, nil
}

// Raw is the inverse of ParseModulePermissions.
func (mp ModulePermissions) Raw() map[string][]string {
	out := make(map[string][]string, len(mp))
	for m, set := range mp {
		tokens := make([]string, 0, len(set))
		for _, p := range set.Slice() {
			tokens = append(tokens, string(p))
		}
		out[string(m)] = tokens
	}
	return out
}

func (mp ModulePermissions) MarshalJSON() ([]byte, error) {
	return json.Marshal(mp.Raw())
}

func (mp *ModulePermissions) UnmarshalJSON(b []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseModulePermissions(raw)
	if err != nil {
		return err
	}
	*mp = parsed
	return nil
}

// User is the business record an authenticated principal maps to.
type User struct {
	UID               string            `json:"uid"`
	Email             string            `json:"email"`
	DisplayName       string            `json:"displayName"`
	Role              Role              `json:"role"`
	ModulePermissions ModulePermissions `json:"modulePermissions"`
	IsActive          bool              `json:"isActive"`
	CreatedAt         time.Time         `json:"createdAt"`
}
