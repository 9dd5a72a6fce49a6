// Package authz decides whether a principal may act on a module.
//
// Every check re-reads the user record, so a permission edit takes effect on
// the very next request. Nothing is cached between calls.
package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/server/models"
)

// UserLookup resolves an identity-provider UID to its business record.
// A missing record is reported as common.ErrorNotFound.
type UserLookup interface {
	GetByUID(ctx context.Context, uid string) (*models.User, error)
}

// PermissionDeniedError reports the module and token the principal lacked.
type PermissionDeniedError struct {
	UID        string
	Module     models.Module
	Permission models.Permission
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s lacks %s on module %s", e.UID, e.Permission, e.Module)
}

func (e *PermissionDeniedError) Unwrap() error { return common.ErrPermissionDenied }

// RoleRequiredError reports the roles that would have been accepted.
type RoleRequiredError struct {
	UID    string
	Actual models.Role
	Roles  []models.Role
}

func (e *RoleRequiredError) Error() string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("role required: %s has role %s, need one of %s", e.UID, e.Actual, strings.Join(names, ","))
}

func (e *RoleRequiredError) Unwrap() error { return common.ErrRoleRequired }

type Resolver struct {
	users UserLookup
}

func NewResolver(users UserLookup) *Resolver {
	return &Resolver{users: users}
}

// Principal loads the user record behind uid. A valid credential without a
// record yields common.ErrPrincipalNotProvisioned, not a not-found error.
func (r *Resolver) Principal(ctx context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, common.ErrorUnauthorized
	}
	u, err := r.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: uid %s", common.ErrPrincipalNotProvisioned, uid)
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return u, nil
}

// Authorize returns nil when uid may perform perm on module. Role admin
// bypasses module checks; a module-scoped admin token implies every token on
// that module.
func (r *Resolver) Authorize(ctx context.Context, uid string, module models.Module, perm models.Permission) error {
	u, err := r.Principal(ctx, uid)
	if err != nil {
		return err
	}
	if u.Role == models.RoleAdmin {
		return nil
	}

	set := u.ModulePermissions[module]
	if set.Has(perm) || set.Has(models.PermAdmin) {
		return nil
	}
	return &PermissionDeniedError{UID: uid, Module: module, Permission: perm}
}

// RequireRole checks the global role only. Module-level admin grants never
// satisfy it.
func (r *Resolver) RequireRole(ctx context.Context, uid string, roles ...models.Role) error {
	u, err := r.Principal(ctx, uid)
	if err != nil {
		return err
	}
	if slices.Contains(roles, u.Role) {
		return nil
	}
	return &RoleRequiredError{UID: uid, Actual: u.Role, Roles: roles}
}
